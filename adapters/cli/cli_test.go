package cli_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/adapters/cli"
	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/usecases/workloaddsl"
)

func validLoader(source string) (*workloaddsl.Builder, error) {
	b := workloaddsl.New()
	b.AddEntity(b.Entity("User", 1000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32))
	b.Q("SELECT User.username FROM User WHERE User.id = ?", 1.0)
	return b, nil
}

func TestExitCodeNilErrorIsSuccess(t *testing.T) {
	require.Equal(t, cli.ExitSuccess, cli.ExitCode(nil))
}

func TestExitCodeUncategorizedErrorIsInvalidInput(t *testing.T) {
	require.Equal(t, cli.ExitInvalidInput, cli.ExitCode(errors.New("boom")))
}

func TestAdviseSucceedsAndPrintsChosenSchema(t *testing.T) {
	root := cli.NewRootCmd(validLoader)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"advise", "workload.go"})

	err := root.Execute()
	require.NoError(t, err)
	require.Equal(t, cli.ExitSuccess, cli.ExitCode(err))
	require.Contains(t, out.String(), "run_id")
}

func TestAdviseReportsInvalidInputWhenLoaderFails(t *testing.T) {
	root := cli.NewRootCmd(func(source string) (*workloaddsl.Builder, error) {
		return nil, errors.New("no such workload source")
	})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"advise", "missing.go"})

	err := root.Execute()
	require.Error(t, err)
	require.Equal(t, cli.ExitInvalidInput, cli.ExitCode(err))
}

func TestAdviseReportsParseFailureFromMalformedStatement(t *testing.T) {
	root := cli.NewRootCmd(func(source string) (*workloaddsl.Builder, error) {
		b := workloaddsl.New()
		b.AddEntity(b.Entity("User", 1000).
			AddIdentifier("id", 8).
			AddScalar("username", model.FieldString, 32))
		b.Q("MERGE User SET User.username = ?", 1.0)
		return b, nil
	})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"advise", "bad.go"})

	err := root.Execute()
	require.Error(t, err)
	require.Equal(t, cli.ExitParseFailure, cli.ExitCode(err))
}
