package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/gitfresh/internal/utils/path"
)

func TestHomeExpanderExpand(testInstance *testing.T) {
	const homeDirectory = "/home/tester"
	environment := map[string]string{"PROJECTS": "/srv/projects"}

	testCases := []struct {
		name         string
		input        string
		expectedPath string
	}{
		{name: "empty", input: "  ", expectedPath: ""},
		{name: "absolute_path_unchanged", input: "/var/data", expectedPath: "/var/data"},
		{name: "relative_path_trimmed", input: " ./src ", expectedPath: "./src"},
		{name: "bare_tilde", input: "~", expectedPath: homeDirectory},
		{name: "tilde_prefix", input: "~/code/app", expectedPath: filepath.Join(homeDirectory, "code", "app")},
		{name: "other_user_tilde_unchanged", input: "~alice/code", expectedPath: "~alice/code"},
		{name: "environment_reference", input: "$PROJECTS/gitfresh", expectedPath: "/srv/projects/gitfresh"},
		{name: "braced_environment_reference", input: "${PROJECTS}/gitfresh", expectedPath: "/srv/projects/gitfresh"},
		{name: "unset_variable_preserved", input: "$MISSING/gitfresh", expectedPath: "${MISSING}/gitfresh"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
				return homeDirectory, nil
			}).WithEnvironmentLookup(func(name string) (string, bool) {
				value, exists := environment[name]
				return value, exists
			})
			require.Equal(testInstance, testCase.expectedPath, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderLeavesTildeWhenHomeUnavailable(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return "", errors.New("no home")
	})
	require.Equal(testInstance, "~/code", expander.Expand("~/code"))
}

func TestNilHomeExpanderReturnsTrimmedInput(testInstance *testing.T) {
	var expander *pathutils.HomeExpander
	require.Equal(testInstance, "~/code", expander.Expand(" ~/code "))
}
