// Package gotest hosts report logging for Go test runs.
//
// It reads the event stream of `go test -json` (test2json), either live
// from a Runner or replayed from a file, and republishes it as report log
// lifecycle events shaped like pytest's serialized reports:
//
//   - each test end becomes a TestReport with nodeid "pkg::TestName",
//     location [pkg, null, TestName] and when "call";
//   - each package end becomes a CollectReport, failed when the package did
//     not build or failed outside any test;
//   - "file.go:line: message" diagnostics printed outside tests become
//     WarningMessages.
//
// Output captured from t.Log and friends lands in the "Captured log call"
// section, anything else the test printed in "Captured stdout call". A
// failed report's longrepr.reprcrash.message holds the panic or the last
// logged message.
//
// The session exit status follows pytest: 0 all passed, 1 failures, 2
// interrupted, 3 internal error, 4 usage error, 5 no tests collected.
package gotest
