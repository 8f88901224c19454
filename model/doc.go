// Package model defines the records stored in ledger state and the action
// payloads carried by cryptomoji transactions.
//
// State identity depends on these encodings: every validating node must
// produce byte-identical JSON for the same record. Struct fields are declared
// in lexicographic order of their JSON names so that encoding/json emits
// sorted keys, and encoders never append a trailing newline.
package model
