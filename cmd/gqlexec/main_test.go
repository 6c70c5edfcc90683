package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := runCLI(t, "", "help", "serve")
	require.NoError(t, err)
	require.Contains(t, out, "serve FLAGS")
	require.Contains(t, out, "-grpc.addr")

	_, _, err = runCLI(t, "", "help", "nope")
	require.EqualError(t, err, `unknown help topic "nope"`)
}

func TestUnknownAndMissingCommand(t *testing.T) {
	_, stderr, err := runCLI(t, "")
	require.EqualError(t, err, "missing command")
	require.Contains(t, stderr, "COMMANDS:")

	_, _, err = runCLI(t, "", "frobnicate")
	require.EqualError(t, err, `unknown command "frobnicate"`)
}

func TestExec(t *testing.T) {
	out, _, err := runCLI(t, "", "exec",
		"-query", `query Hero($ep: Episode) { hero(episode: $ep) { name } }`,
		"-vars", `{"ep":"EMPIRE"}`)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"hero":{"name":"Luke Skywalker"}}}`, out)
}

func TestExecFromStdinSerial(t *testing.T) {
	out, _, err := runCLI(t, `{ hero { name friends { name } } }`, "exec", "-exec.strategy", "serial")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"hero":{"name":"R2-D2","friends":[
		{"name":"Luke Skywalker"},{"name":"Han Solo"},{"name":"Leia Organa"}]}}}`, out)
}

func TestExecFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.graphql")
	require.NoError(t, os.WriteFile(path, []byte(`{ human(id: "1000") { name homePlanet } }`), 0644))
	out, _, err := runCLI(t, "", "exec", "-file", path)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"human":{"name":"Luke Skywalker","homePlanet":"Tatooine"}}}`, out)
}

func TestExecBadFlags(t *testing.T) {
	_, _, err := runCLI(t, "", "exec", "-query", "{ hero { name } }", "-exec.strategy", "bfs")
	require.EqualError(t, err, `unknown execution strategy "bfs"`)

	_, _, err = runCLI(t, "", "exec", "-query", "{ hero { name } }", "-vars", "nope")
	require.ErrorContains(t, err, "invalid -vars JSON")

	_, _, err = runCLI(t, "  ", "exec")
	require.EqualError(t, err, "no query given")
}

func TestValidate(t *testing.T) {
	out, _, err := runCLI(t, "", "validate", "-query", "{ hero { name } }")
	require.NoError(t, err)
	require.Equal(t, "ok\n", out)

	out, _, err = runCLI(t, "", "validate", "-query", "{ hero { nope } }")
	require.EqualError(t, err, "1 validation error(s)")
	require.Contains(t, out, `Cannot query field "nope" on type "Character".`)
}

func TestPrintSchema(t *testing.T) {
	out, _, err := runCLI(t, "", "print-schema")
	require.NoError(t, err)
	require.Contains(t, out, "interface Character")
	require.Contains(t, out, "enum Episode")
	require.Contains(t, out, "type Query")

	path := filepath.Join(t.TempDir(), "schema.graphql")
	_, _, err = runCLI(t, "", "print-schema", "-out", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, out, string(b))
}
