// Package audit records administrative actions in the append-only audit_logs table.
//
// Recording is best effort. A missing actor or a failed insert is logged and
// counted but never reported to the caller, so the mutation that triggered the
// entry always completes.
package audit
