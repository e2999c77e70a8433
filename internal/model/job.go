package model

// Executables are the external tools a job drives.
type Executables struct {
	Encoder   Path `json:"encoder"`
	Decoder   Path `json:"decoder"`
	Validator Path `json:"validator"`
	Harness   Path `json:"harness"`
}

// JobDescriptor is one concrete unit of work produced by the job builder.
// It is not modified after creation.
type JobDescriptor struct {
	Number     int            `json:"number"`
	Codec      string         `json:"codec"`
	Sequence   string         `json:"sequence"`
	Test       TestDefinition `json:"test"`
	Tools      Executables    `json:"tools"`
	InputDir   Path           `json:"input_dir"`
	BaseDir    Path           `json:"base_dir"`
	WorkDir    Path           `json:"work_dir"`
	Defaults   ParameterSet   `json:"defaults"`
	Display    DisplayMode    `json:"display"`
	DecodeOnly bool           `json:"decode_only"`
	Manifest   ManifestInfo   `json:"manifest"`
}

// OutputName is the canonical artifact prefix of the job.
func (j JobDescriptor) OutputName() string {
	return j.Test.OutputName(j.Sequence)
}

// ManifestInfo is the fixed metadata written into the conformance text manifest.
type ManifestInfo struct {
	Profile     string `json:"profile"`
	PictureRate int    `json:"picture_rate"`
	Release     string `json:"release"`
	Contact     string `json:"contact"`
}
