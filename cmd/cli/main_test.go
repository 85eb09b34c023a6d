package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"nvt/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t   *testing.T
	dir string
}

func (c cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	full := append([]string{"-backend", "bolt", "-data", c.dir}, args...)
	err := run(full, &out, io.Discard)
	return out.String(), err
}

func (c cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, strings.Join(args, " "))
	return out
}

func TestViewAndRecent(t *testing.T) {
	c := cli{t: t, dir: t.TempDir()}

	assert.Contains(t, c.mustRun("view", "--type", "service", "--id", "3"), "Family Therapy")
	assert.Contains(t, c.mustRun("view", "--type", "specialty", "--id", "1"), "Anxiety")
	c.mustRun("view", "--type", "service", "--id", "3")

	out := c.mustRun("recent", "--cards")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Family Therapy")
	assert.Contains(t, lines[1], "Anxiety")

	out = c.mustRun("recent", "--type", "specialty")
	assert.Equal(t, 1, strings.Count(out, "specialty"))

	_, err := c.run("view", "--type", "service", "--id", "99")
	assert.Error(t, err)
	_, err = c.run("recent", "--type", "blog")
	assert.Error(t, err)
}

func TestDraftCommands(t *testing.T) {
	c := cli{t: t, dir: t.TempDir()}

	assert.Contains(t, c.mustRun("draft", "get", "--form", "newsletter"), "no draft")
	c.mustRun("draft", "save", "--form", "newsletter", "--data", `{"email":"a@b.c"}`)
	assert.Contains(t, c.mustRun("draft", "get", "--form", "newsletter"), `{"email":"a@b.c"}`)
	c.mustRun("draft", "clear", "--form", "newsletter")
	c.mustRun("draft", "clear", "--form", "newsletter")
	assert.Contains(t, c.mustRun("draft", "get", "--form", "newsletter"), "no draft")

	_, err := c.run("draft", "save", "--form", "x", "--data", "{nope")
	assert.Error(t, err)
}

func TestBookFlow(t *testing.T) {
	c := cli{t: t, dir: t.TempDir()}

	out := c.mustRun("book", "--set", "name=Jane", "--set", "mode=In-Person", "--submit")
	assert.Contains(t, out, "ERROR: Email is required.")

	// The draft carries over to the next invocation.
	out = c.mustRun("book")
	assert.Contains(t, out, `name="Jane"`)
	assert.Contains(t, out, "mode=In-Person")

	out = c.mustRun("book",
		"--set", "email=jane@example.com",
		"--set", "phone=555-0100",
		"--set", "schedule=Mornings",
		"--submit")
	assert.Contains(t, out, "OK submitted")

	out = c.mustRun("book")
	assert.Contains(t, out, `name=""`)
}

func TestKeysAndClearAll(t *testing.T) {
	c := cli{t: t, dir: t.TempDir()}
	c.mustRun("view", "--id", "1")
	c.mustRun("book", "--set", "name=Jane")

	out := c.mustRun("keys")
	assert.Contains(t, out, "recentlyViewed")
	assert.Contains(t, out, "formProgress_appointmentForm")

	c.mustRun("clear-all")
	assert.Empty(t, c.mustRun("keys"))
}

func TestCatalogCommands(t *testing.T) {
	c := cli{t: t, dir: t.TempDir()}
	out := c.mustRun("services", "--availability", "Virtual")
	assert.Contains(t, out, "Adolescent Counseling")
	assert.NotContains(t, out, "Couples Therapy")

	out = c.mustRun("faqs", "--search", "insurance")
	assert.Contains(t, out, "[Billing]")
}

func TestUsageErrors(t *testing.T) {
	c := cli{t: t, dir: t.TempDir()}
	_, err := c.run()
	assert.ErrorIs(t, err, errUsage)
	_, err = c.run("frobnicate")
	assert.ErrorIs(t, err, errUsage)
	_, err = c.run("draft")
	assert.ErrorIs(t, err, errUsage)
}

func TestMetricsFlag(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"-backend", "memory", "-metrics", "view", "--id", "2"}, &out, &errOut)
	require.NoError(t, err)
	assert.Contains(t, errOut.String(), "nvt_views_recorded_total 1")
}

func TestKeysReportsCorruptAndNull(t *testing.T) {
	c := cli{t: t, dir: t.TempDir()}
	c.mustRun("draft", "save", "--form", "contact", "--data", `{"a":1}`)

	bs, err := storage.NewBoltStore(c.dir)
	require.NoError(t, err)
	require.NoError(t, bs.Put("recentlyViewed", []byte("{broken")))
	require.NoError(t, bs.Put("formProgress_empty", []byte("null")))
	require.NoError(t, bs.Close())

	out := c.mustRun("keys")
	lines := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		require.GreaterOrEqual(t, len(fields), 2, line)
		lines[fields[0]] = strings.Join(fields[1:], " ")
	}
	assert.Equal(t, "corrupt", lines["recentlyViewed"])
	assert.Equal(t, "null", lines["formProgress_empty"])
	assert.Regexp(t, `^\d+ bytes$`, lines["formProgress_contact"])
	assert.NotEqual(t, "4 bytes", lines["formProgress_contact"])
}

func TestFlagOverridesInvalidEnvBackend(t *testing.T) {
	t.Setenv("NVT_BACKEND", "redis")

	var out bytes.Buffer
	err := run([]string{"-backend", "memory", "services"}, &out, io.Discard)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Individual Therapy")

	err = run([]string{"services"}, &out, io.Discard)
	assert.Error(t, err)
}
