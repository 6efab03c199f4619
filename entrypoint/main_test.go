package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/pipeline"
	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, stdin string, args ...string) string {
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func decodeResponse(t *testing.T, out string) pipeline.Response {
	var response pipeline.Response
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	return response
}

func TestAnalyzeArgs(t *testing.T) {
	out := runCmd(t, "", "analyze", "Show me all diabetic patients over 50", "heart rate for patient 7")
	response := decodeResponse(t, out)

	require.NotEmpty(t, response.Tid)
	require.Equal(t, lexicon.Default().Fingerprint(), response.LexiconVersion)
	require.Len(t, response.Results, 2)
	require.Equal(t, types.IntentFindPatients, response.Results[0].Result.Intent)
	require.Equal(t, types.ResourceObservation, response.Results[1].Result.FHIRQuery.Resource)
}

func TestAnalyzeStdin(t *testing.T) {
	out := runCmd(t, "patients with asthma\n\n  \nI have chest pain\n", "analyze", "--pretty")
	require.Contains(t, out, "\n  \"tid\"")

	response := decodeResponse(t, out)
	require.Len(t, response.Results, 2)
	require.Equal(t, 1, response.Results[0].Line)
	require.Equal(t, 2, response.Results[1].Line)
}

func TestBaseURLFromEnvironment(t *testing.T) {
	t.Setenv("FHIRQ_BASE_URL", "https://fhir.example.org/r4/")
	out := runCmd(t, "", "analyze", "patients with asthma")

	response := decodeResponse(t, out)
	require.True(t, strings.HasPrefix(response.Results[0].Result.FHIRQuery.Endpoint, "https://fhir.example.org/r4/Patient?"))
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "fhirq.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("base-url: https://fhir.test/base\n"), 0o600))

	out := runCmd(t, "", "--config", cfgFile, "analyze", "patients with asthma")
	response := decodeResponse(t, out)
	require.True(t, strings.HasPrefix(response.Results[0].Result.FHIRQuery.Endpoint, "https://fhir.test/base/Patient?"))
}

func TestMissingConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "analyze", "x"})
	require.Error(t, cmd.Execute())
}

const customLexicon = `
version: "test-1"
conditions:
  - name: gout
    code: "90560007"
    system: http://snomed.info/sct
`

func TestLoadLexicon(t *testing.T) {
	v := viper.New()
	lex, err := loadLexicon(v)
	require.NoError(t, err)
	require.Same(t, lexicon.Default(), lex)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rheumatology.yaml"), []byte(customLexicon), 0o600))

	v.Set(keyLexicon, filepath.Join(dir, "rheumatology.yaml"))
	lex, err = loadLexicon(v)
	require.NoError(t, err)
	require.Equal(t, "test-1", lex.Version())

	v.Set(keyLexicon, dir)
	v.Set(keyLexiconName, "rheumatology")
	lex, err = loadLexicon(v)
	require.NoError(t, err)
	require.Equal(t, "test-1", lex.Version())

	v.Set(keyLexiconName, "cardiology")
	_, err = loadLexicon(v)
	require.Error(t, err)

	v.Set(keyLexicon, filepath.Join(dir, "missing.yaml"))
	_, err = loadLexicon(v)
	require.Error(t, err)
}

func TestServerConfig(t *testing.T) {
	v := viper.New()
	v.Set(keyCacheTTL, "1m")
	v.Set(keyCORSOrigins, []string{"https://app.example.org"})
	v.Set(keyMaxQueryLen, 50)

	cfg := serverConfig(v)
	require.Equal(t, time.Minute, cfg.CacheTTL)
	require.Equal(t, []string{"https://app.example.org"}, cfg.CORSOrigins)
	require.Equal(t, 50, cfg.MaxQueryLength)
}

type fakeWorker struct {
	err error
}

func (w *fakeWorker) StartWorker(ctx context.Context) error {
	return w.err
}

func TestRunWorkerRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started int32
	newWorker := func(ppln pipeline.Pipeline) (*fakeWorker, error) {
		switch atomic.AddInt32(&started, 1) {
		case 3:
			cancel()
			return &fakeWorker{}, nil
		case 1:
			return nil, errors.New("rabbit is down")
		}
		return &fakeWorker{err: errors.New("connection lost")}, nil
	}

	require.NoError(t, runWorker(ctx, nil, time.Millisecond, newWorker))
	require.EqualValues(t, 3, atomic.LoadInt32(&started))
}
