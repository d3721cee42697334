// Package action runs the permission-checked mutations of the admin area.
//
// Every mutation goes through Deps.Run: the input is validated, the permission
// gate is consulted, the write is performed and, on success, exactly one audit
// entry is recorded. Gate failures are returned as errors. Everything else is
// reported through Result.
package action
