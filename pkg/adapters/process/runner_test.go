package process

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(script string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/c", script}
	}
	return "sh", []string{"-c", script}
}

func TestRunner_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts below are POSIX")
	}
	runner := NewRunner()

	t.Run("Captures Output", func(t *testing.T) {
		cmd, args := shell("echo out; echo err >&2")
		runner.Register("both", cmd, args...)

		res, err := runner.Run(context.Background(), "both")
		require.NoError(t, err)
		assert.True(t, res.Good)
		assert.Equal(t, 0, res.ReturnCode)
		assert.Equal(t, "out\n", res.Stdout)
		assert.Equal(t, "err\n", res.Stderr)
	})

	t.Run("Appends Arguments", func(t *testing.T) {
		runner.Register("echo", "sh", "-c", `echo "$1-$2"`, "sh")

		res, err := runner.Run(context.Background(), "echo", "a", "b")
		require.NoError(t, err)
		assert.Equal(t, "a-b\n", res.Stdout)
	})

	t.Run("Non-Zero Exit Is Not An Error", func(t *testing.T) {
		cmd, args := shell("echo broken >&2; exit 3")
		runner.Register("fail", cmd, args...)

		res, err := runner.Run(context.Background(), "fail")
		require.NoError(t, err)
		assert.False(t, res.Good)
		assert.Equal(t, 3, res.ReturnCode)
		assert.Equal(t, "broken\n", res.Stderr)
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := runner.Run(context.Background(), "hacker_script")
		assert.ErrorIs(t, err, ErrNotRegistered)
	})

	t.Run("Missing Binary", func(t *testing.T) {
		runner.Register("ghost", "teiinfo-definitely-missing-binary")
		_, err := runner.Run(context.Background(), "ghost")
		assert.ErrorIs(t, err, exec.ErrNotFound)
	})

	t.Run("Cancellation", func(t *testing.T) {
		runner.Register("sleep", "sh", "-c", "sleep 5")
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := runner.Run(ctx, "sleep")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestWithRegistry(t *testing.T) {
	tools := map[string]ProcessConfig{
		"jing":  {Name: "jing", Jar: "/opt/jing.jar"},
		"trang": {Name: "trang", Jar: "/opt/trang.jar", Args: []string{"-I", "rng"}},
		"xmllint": {
			Name:        "xmllint",
			Command:     "xmllint",
			Args:        []string{"--noout"},
			Environment: map[string]string{"XML_CATALOG_FILES": "/etc/catalog"},
		},
		"empty": {Name: "empty"},
	}

	r := NewRunner(WithRegistry(tools, "java", "-Xmx1g"))

	assert.Equal(t, []string{"jing", "trang", "xmllint"}, r.Tools())
	assert.Equal(t, RegisteredProcess{Command: "java", Args: []string{"-Xmx1g", "-jar", "/opt/jing.jar"}}, r.registry["jing"])
	assert.Equal(t, []string{"-Xmx1g", "-jar", "/opt/trang.jar", "-I", "rng"}, r.registry["trang"].Args)
	assert.Equal(t, []string{"XML_CATALOG_FILES=/etc/catalog"}, r.registry["xmllint"].Env)
	assert.False(t, r.Registered("empty"))
}
