package model

// JobOutcome records what happened at every stage of one job.
type JobOutcome struct {
	EncodeOK     bool   `json:"encode_ok"`
	DecodeOK     bool   `json:"decode_ok"`
	ValidateOK   bool   `json:"validate_ok"`
	HarnessOK    bool   `json:"harness_ok"`
	DecodeMatch  bool   `json:"decode_match"`
	HarnessMatch bool   `json:"harness_match"`
	UserDataOK   bool   `json:"userdata_ok"`
	Checksum     string `json:"checksum"`
	// ExpectedMismatch is set when the reconstruction MD5 differs from the
	// test's expected MD5.
	ExpectedMismatch bool `json:"expected_mismatch,omitempty"`
}

// Success reports whether every required stage passed. The validator is
// not part of the verdict on its own; its output is checked through the harness.
func (o JobOutcome) Success() bool {
	return o.EncodeOK && o.DecodeOK && o.HarnessOK && o.DecodeMatch && o.HarnessMatch && o.UserDataOK &&
		!o.ExpectedMismatch
}

// JobResult is what a worker hands back to the batch runner.
type JobResult struct {
	Success bool           `json:"success"`
	Number  int            `json:"number"`
	Test    TestDefinition `json:"test"`
	Outcome JobOutcome     `json:"outcome"`
	Err     string         `json:"error,omitempty"`
}
