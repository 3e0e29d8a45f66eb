package protocol

// PingResult is the result of the ping method
type PingResult struct {
	Message string `json:"message"`
	Time    string `json:"time"`
}

// CapabilitiesResult describes what this service supports. Values are
// strings per the protocol's transmission rules.
type CapabilitiesResult struct {
	Protocol               string `json:"protocol"`
	Streaming              string `json:"streaming"`
	AudioFormats           string `json:"audio_formats"`
	SampleRatesHz          string `json:"sample_rates_hz"`
	ASR                    string `json:"asr"`
	RecommendedModel       string `json:"recommended_model"`
	SupportsLocalModelPath string `json:"supports_local_model_path"`
	DefaultLanguage        string `json:"default_language"`
	LanguageModes          string `json:"language_modes"`
	MixedMode              string `json:"mixed_mode"`
}

// StreamStartResult is the result of stream_start
type StreamStartResult struct {
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

// StreamPushResult is the result of stream_push. Booleans and counts travel
// as strings; Actions is always present, possibly empty.
type StreamPushResult struct {
	SessionID      string   `json:"session_id"`
	Endpoint       string   `json:"endpoint"`
	SpeechFrames   string   `json:"speech_frames"`
	SilenceFrames  string   `json:"silence_frames"`
	Text           string   `json:"text"`
	Final          string   `json:"final"`
	Kind           string   `json:"kind"`
	CommittedText  string   `json:"committed_text"`
	Actions        []Action `json:"actions"`
	StablePrefix   string   `json:"stable_prefix"`
	UnstableSuffix string   `json:"unstable_suffix"`
	DeltaFrom      string   `json:"delta_from"`
	DeltaDelete    string   `json:"delta_delete"`
	DeltaInsert    string   `json:"delta_insert"`
}

// StreamFinalizeResult is the result of stream_finalize
type StreamFinalizeResult struct {
	SessionID string   `json:"session_id"`
	Text      string   `json:"text"`
	Actions   []Action `json:"actions"`
}
