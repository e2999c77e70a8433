package model

// DecodeResult is the outcome of re-decoding one published bitstream.
type DecodeResult struct {
	Bitstream       Path   `json:"bitstream"`
	BaseEncoder     string `json:"base_encoder"`
	DecodeOK        bool   `json:"decode_ok"`
	Checksum        string `json:"checksum,omitempty"`
	StoredChecksum  string `json:"stored_checksum,omitempty"`
	ChecksumChecked bool   `json:"checksum_checked"`
	ChecksumMatch   bool   `json:"checksum_match"`
	UserDataChecked bool   `json:"userdata_checked"`
	UserDataOK      bool   `json:"userdata_ok"`
	Err             string `json:"error,omitempty"`
}

// Success reports whether the bitstream decoded and every available reference matched.
func (r DecodeResult) Success() bool {
	if !r.DecodeOK || r.Err != "" {
		return false
	}

	if r.ChecksumChecked && !r.ChecksumMatch {
		return false
	}

	return !r.UserDataChecked || r.UserDataOK
}

// DecodeReport is the aggregate of a decode conformance run.
type DecodeReport struct {
	Results  []DecodeResult
	Failures int
}
