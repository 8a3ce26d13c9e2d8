package prompts

import (
	"bufio"
	"io"
	"os"
	"strings"

	ioutils "github.com/handiism/fooocus-batch/internal/io"
	"github.com/handiism/fooocus-batch/internal/model"
)

// Template is written by WriteTemplate.
const Template = `# Example prompts for batch processing
# Each line is a separate prompt
a beautiful girl, professional portrait, studio lighting, 8k, masterpiece
a girl in a cyberpunk city, neon lights, detailed, 8k
a girl in a forest, fantasy style, magical atmosphere, 8k
a girl on a beach, sunset, summer vibes, 8k
a girl in an office, professional wear, natural lighting, 8k
`

// Read parses the prompt file at path.
func Read(path string) ([]model.PromptLine, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &model.MissingInputError{Path: path}
		}
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads prompts from r.
func Parse(r io.Reader) ([]model.PromptLine, error) {
	var prompts []model.PromptLine

	scanner := bufio.NewScanner(r)
	// Prompt lines up to 1 MiB.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, model.PromptLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return prompts, nil
}

// WriteTemplate writes the example prompt file to path, creating the parent
// directory if needed.
func WriteTemplate(path string) error {
	if err := ioutils.EnsureParentDir(path); err != nil {
		return err
	}
	return ioutils.WriteFile(path, []byte(Template))
}
