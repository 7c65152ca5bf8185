package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"pubcheck/internal/data"
	"pubcheck/internal/rules"
	_ "pubcheck/internal/rules/checks"
	"pubcheck/internal/submission"
)

// mockRule implements rules.Rule for testing purposes
type mockRule struct {
	id          string
	title       string
	description string
}

func (m *mockRule) ID() string                         { return m.id }
func (m *mockRule) Title() string                      { return m.title }
func (m *mockRule) Description() string                { return m.description }
func (m *mockRule) Dependencies() []data.DependencyKey { return nil }
func (m *mockRule) Evaluate(ctx context.Context, sub *submission.Submission, dc data.DataContext) (rules.Result, error) {
	return rules.Result{}, nil
}

// mockConfigurableRule implements rules.ConfigurableRule for testing purposes
type mockConfigurableRule struct {
	mockRule
	options []rules.Option
}

func (m *mockConfigurableRule) Options() []rules.Option {
	return m.options
}

func (m *mockConfigurableRule) Configure(opts map[string]string) error {
	return nil
}

func TestPrintRule(t *testing.T) {
	tests := []struct {
		name           string
		rule           rules.Rule
		expectedOutput []string
		notExpected    []string
	}{
		{
			name: "Regular Rule",
			rule: &mockRule{
				id:          "simple-rule",
				title:       "Simple Rule",
				description: "A simple rule description",
			},
			expectedOutput: []string{
				"RULE: simple-rule",
				"Simple Rule",
				"A simple rule description",
			},
			notExpected: []string{
				"Options:",
			},
		},
		{
			name: "Configurable Rule",
			rule: &mockConfigurableRule{
				mockRule: mockRule{
					id:          "config-rule",
					title:       "Config Rule",
					description: "A configurable rule description",
				},
				options: []rules.Option{
					{
						Name:        "opt1",
						Description: "Option 1 description",
						Default:     "default1",
					},
					{
						Name:        "opt2",
						Description: "Option 2 description",
						Default:     "",
					},
				},
			},
			expectedOutput: []string{
				"RULE: config-rule",
				"Config Rule",
				"A configurable rule description",
				"Options:",
				"config-rule.opt1",
				"Description: Option 1 description",
				"Default:     default1",
				"config-rule.opt2",
				"Description: Option 2 description",
				"Default:     \"\"",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			printRule(buf, tt.rule)
			output := buf.String()

			for _, exp := range tt.expectedOutput {
				if !strings.Contains(output, exp) {
					t.Errorf("Expected output to contain %q, but it didn't.\nOutput:\n%s", exp, output)
				}
			}

			for _, notExp := range tt.notExpected {
				if strings.Contains(output, notExp) {
					t.Errorf("Expected output NOT to contain %q, but it did.\nOutput:\n%s", notExp, output)
				}
			}
		})
	}
}

func TestRulesListCmd(t *testing.T) {
	tests := []struct {
		name           string
		quiet          bool
		expectedOutput []string
		notExpected    []string
	}{
		{
			name:  "Default Output",
			quiet: false,
			expectedOutput: []string{
				"----------------------------------------",
				"RULE: files",
				"RULE: cc_licence",
				"in_time.threshold",
				"founded_by.allow.dois",
			},
		},
		{
			name:  "Quiet Output",
			quiet: true,
			expectedOutput: []string{
				"files\nin_time\nfounded_by\nauthor_rights\ncc_licence\n",
			},
			notExpected: []string{
				"RULE:",
				"----------------------------------------",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flag
			rulesListQuiet = tt.quiet
			defer func() { rulesListQuiet = false }()

			buf := new(bytes.Buffer)
			rulesListCmd.SetOut(buf)

			// Execute RunE directly
			err := rulesListCmd.RunE(rulesListCmd, []string{})
			if err != nil {
				t.Fatalf("RunE() error = %v", err)
			}

			output := buf.String()
			for _, exp := range tt.expectedOutput {
				if !strings.Contains(output, exp) {
					t.Errorf("Expected output to contain %q, but it didn't.\nOutput:\n%s", exp, output)
				}
			}
			for _, notExp := range tt.notExpected {
				if strings.Contains(output, notExp) {
					t.Errorf("Expected output NOT to contain %q, but it did.\nOutput:\n%s", notExp, output)
				}
			}
		})
	}
}

func TestRulesShowCmd_UnknownRule(t *testing.T) {
	if err := rulesShowCmd.RunE(rulesShowCmd, []string{"no_such_rule"}); err == nil {
		t.Fatalf("expected error for unknown rule")
	}
}
