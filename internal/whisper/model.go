package whisper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const DefaultModel = "small"

type Model struct {
	Name     string
	FileName string
	URL      string
	SHA256   string
}

// ResolvedModel is where a model lives on disk and whether it still has to be
// fetched. Custom model files are used as-is and never downloaded.
type ResolvedModel struct {
	Model
	Path          string
	NeedsDownload bool
	IsCustomPath  bool
}

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

var catalog = []Model{
	{Name: "tiny", FileName: "ggml-tiny.bin", SHA256: "be07e048e1e599ad46341c8d2a135645097a538221678b7acdd1b1919c6e1b21"},
	{Name: "base", FileName: "ggml-base.bin", SHA256: "60ed5bc3dd14eea856493d334349b405782ddcaf0028d4b5df4088345fba2efe"},
	{Name: "small", FileName: "ggml-small.bin", SHA256: "1be3a9b2063867b937e64e2ec7483364a79917e157fa98c5d94b5c1fffea987b"},
	{Name: "medium", FileName: "ggml-medium.bin", SHA256: "6c14d5adee5f86394037b4e4e8b59f1673b6cee10e3cf0b11bbdbee79c156208"},
	{Name: "large-v3", FileName: "ggml-large-v3.bin", SHA256: "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2"},
}

func ModelNames() []string {
	names := make([]string, 0, len(catalog))
	for _, m := range catalog {
		names = append(names, m.Name)
	}
	slices.Sort(names)
	return names
}

func LookupModel(name string) (Model, bool) {
	idx := slices.IndexFunc(catalog, func(m Model) bool { return m.Name == name })
	if idx < 0 {
		return Model{}, false
	}
	m := catalog[idx]
	m.URL = modelBaseURL + m.FileName
	return m, true
}

// ResolveModel maps a model name or a path to a ggml file. Named models live
// in modelDir; anything that looks like a path must already exist.
func ResolveModel(modelRef, modelDir string) (ResolvedModel, error) {
	modelRef = strings.TrimSpace(modelRef)
	if modelRef == "" {
		modelRef = DefaultModel
	}

	if model, ok := LookupModel(modelRef); ok {
		if strings.TrimSpace(modelDir) == "" {
			return ResolvedModel{}, errors.New("model directory must not be empty for named model")
		}

		path := filepath.Join(modelDir, model.FileName)
		_, statErr := os.Stat(path)
		if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
			return ResolvedModel{}, fmt.Errorf("stat model path: %w", statErr)
		}

		return ResolvedModel{Model: model, Path: path, NeedsDownload: statErr != nil}, nil
	}

	if !looksLikePath(modelRef) {
		return ResolvedModel{}, fmt.Errorf("unknown model %q (known models: %s)", modelRef, strings.Join(ModelNames(), ", "))
	}

	customPath := filepath.Clean(modelRef)
	if _, err := os.Stat(customPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ResolvedModel{}, fmt.Errorf("custom model path does not exist: %s", customPath)
		}
		return ResolvedModel{}, fmt.Errorf("stat custom model path: %w", err)
	}

	return ResolvedModel{Path: customPath, IsCustomPath: true}, nil
}

func looksLikePath(input string) bool {
	return strings.ContainsRune(input, os.PathSeparator) || strings.HasSuffix(strings.ToLower(input), ".bin")
}
