package model

import "encoding/json"

// HashEntry is the reference data recorded for one job.
// Both fields are empty for jobs that never reached verification.
type HashEntry struct {
	Base string `json:"base"`
	Hash string `json:"hash"`
}

// MarshalJSON writes "{}" for an empty entry and both keys otherwise, so a
// job without a base reconstruction still records "base": "".
func (e HashEntry) MarshalJSON() ([]byte, error) {
	if e == (HashEntry{}) {
		return []byte("{}"), nil
	}

	type plain HashEntry

	return json.Marshal(plain(e))
}

// HashReport maps "<sequence>_<name>_v-nova_v<NN>" to its reference entry.
type HashReport map[string]HashEntry

// Add folds the test record of a finished job into the report.
func (r HashReport) Add(sequence string, test TestDefinition) {
	key := test.OutputName(sequence)
	if test.Checksum == "" {
		r[key] = HashEntry{}
		return
	}

	r[key] = HashEntry{Base: test.BaseRecon, Hash: test.Checksum}
}

// BatchReport is the aggregate result of a batch run.
type BatchReport struct {
	Results    []JobResult
	Failures   int
	Hashes     HashReport
	Comparison *HashComparison
}
