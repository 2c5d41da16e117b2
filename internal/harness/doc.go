// Package harness runs YAML scenarios against an encrypted preferences
// store and records what every step observed.
//
// Each scenario gets a fresh in-memory SQLite backing store, a deterministic
// clock (so IV seeds are reproducible) and a fixed installation ID. The
// resulting trace is therefore byte-identical across runs and is compared
// against golden files in testdata/golden.
//
// # Scenario Format
//
//	name: ada_then_delete_all
//	description: Stored values disappear after DeleteAll
//	namespace: com.example.app   # optional
//	password: pw                 # optional
//	setup:
//	  - op: put
//	    key: name
//	    value: Ada
//	flow:
//	  - op: get
//	    key: name
//	    default: "?"
//	    expect: Ada
//	assertions:
//	  - type: final_count
//	    count: 2
//
// Setup steps must succeed. Flow steps with an expect clause are checked and
// mismatches are reported in Result.Errors; the run continues so one trace
// shows every failure.
//
// # Operations
//
// Keyed: put, get, lookup, contains, init_value, store_array, restore_array,
// remove, encrypted_key. Typed operations take a type of string (default),
// int, long, float, double or bool.
//
// Store-wide: init (rebind, value is the password), count, dump,
// delete_all, init_launch_counter, launch_counter, init_installation_date,
// installation_date, installation_id.
package harness
