package library

// RedactDSN exposes redactDSN to tests.
var RedactDSN = redactDSN
