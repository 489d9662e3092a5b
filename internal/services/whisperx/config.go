package whisperx

// Config captures runtime settings for WhisperX runs.
type Config struct {
	Model       string // e.g. "medium", "large-v3"
	CUDAEnabled bool
	VADMethod   string // "silero" or "pyannote"
	HFToken     string // required by pyannote
	// Language hints the spoken language. Names and ISO codes are accepted;
	// empty lets WhisperX detect it.
	Language string
	// CacheDir holds downloaded models. Empty uses the Hugging Face and Torch defaults.
	CacheDir string
}

const (
	// UVXCommand runs WhisperX without a managed Python environment.
	UVXCommand = "uvx"

	DefaultModel      = "medium"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"

	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"
	CPUDevice    = "cpu"
	CUDADevice   = "cuda"

	cpuComputeType = "float32"
	outputFormat   = "json"
)

// decodeFlags tune WhisperX for long single-speaker-dominant audio. Sentence
// resolution keeps segment text aligned with punctuation, which the
// transcript loader turns into sentences.
var decodeFlags = []string{
	"--batch_size", "4",
	"--segment_resolution", "sentence",
	"--chunk_size", "20",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "5",
	"--best_of", "5",
	"--temperature", "0.0",
	"--patience", "1.0",
}

// SupportedExtensions lists the audio containers accepted for transcription.
var SupportedExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".webm"}
