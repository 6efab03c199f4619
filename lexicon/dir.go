package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Kuljeet1998/healthcare-nlp/logger"
)

var ErrNoLexicons = errors.New("lexicon: no yaml files found")

// LoadDir parses every *.yaml file in dirPath concurrently and returns the
// lexicons keyed by file name without extension. A file that fails to parse
// fails the whole load.
func LoadDir(dirPath string) (map[string]*Lexicon, error) {
	lexLogger := logger.NewLogger("LexiconLoader")

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	type loaded struct {
		name string
		lex  *Lexicon
		err  error
	}

	var wg sync.WaitGroup
	loadedCh := make(chan loaded, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(fileName string) {
			defer wg.Done()
			lex, err := Load(filepath.Join(dirPath, fileName))
			loadedCh <- loaded{name: strings.TrimSuffix(fileName, ".yaml"), lex: lex, err: err}
		}(entry.Name())
	}

	go func() {
		wg.Wait()
		close(loadedCh)
	}()

	result := make(map[string]*Lexicon)
	var errs []error
	for item := range loadedCh {
		if item.err != nil {
			lexLogger.Err(item.err).Str("lexicon", item.name).Msg("Failed to load lexicon")
			errs = append(errs, item.err)
			continue
		}
		lexLogger.Debug().Str("lexicon", item.name).Str("fingerprint", item.lex.Fingerprint()).Msg("Loaded lexicon")
		result[item.name] = item.lex
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(result) == 0 {
		return nil, ErrNoLexicons
	}
	return result, nil
}
