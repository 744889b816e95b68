package speaker_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/tts-webui/internal/speaker"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()

	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)
	require.NoError(t, err)
}

func TestLoad_ReadsProfiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeProfile(t, dir, "bob.json",
		`{"id":"spk-1","name":"Bob","gender":"male","describe":"calm narrator"}`)
	writeProfile(t, dir, "alice.json",
		`{"id":"spk-2","name":"Alice","gender":"female","embedding":"emb-alice"}`)
	writeProfile(t, dir, "notes.txt", "not a profile")

	registry, err := speaker.Load(dir)
	require.NoError(t, err)

	speakers := registry.List()
	require.Len(t, speakers, 2)

	assert.Equal(t, "Alice", speakers[0].Name)
	assert.Equal(t, "Bob", speakers[1].Name)
}

func TestLoad_MissingDirYieldsEmptyRegistry(t *testing.T) {
	t.Parallel()

	registry, err := speaker.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, registry.List())
}

func TestLoad_MalformedProfileFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeProfile(t, dir, "broken.json", `{"name":`)

	_, err := speaker.Load(dir)
	require.Error(t, err)
}

func TestRegistry_GetByNameAndID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeProfile(t, dir, "bob.json", `{"id":"spk-1","name":"Bob","gender":"male"}`)

	registry, err := speaker.Load(dir)
	require.NoError(t, err)

	byName, ok := registry.Get("Bob")
	require.True(t, ok)
	assert.Equal(t, "spk-1", byName.ID)

	byID, ok := registry.Get("spk-1")
	require.True(t, ok)
	assert.Equal(t, "Bob", byID.Name)

	_, ok = registry.Get("nobody")
	assert.False(t, ok)
}

func TestFromBytes(t *testing.T) {
	t.Parallel()

	spk, err := speaker.FromBytes(
		[]byte(`{"name":"Carol","embedding":"emb-carol"}`),
	)
	require.NoError(t, err)
	assert.Equal(t, "Carol", spk.Name)
	assert.Equal(t, "emb-carol", spk.Ref())

	_, err = speaker.FromBytes(nil)
	require.ErrorIs(t, err, speaker.ErrEmptyProfile)

	_, err = speaker.FromBytes([]byte(`{"gender":"male"}`))
	require.ErrorIs(t, err, speaker.ErrNameMissing)
}
