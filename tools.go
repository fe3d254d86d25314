//go:build tools

package tools

// Tool dependencies are not tracked with blank imports. mockery is used
// as an installed binary; run `mockery` from the repository root to
// regenerate the mocks listed in .mockery.yaml.
