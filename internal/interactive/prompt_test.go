package interactive

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestPrompterYesResponse(t *testing.T) {
	input := strings.NewReader("y\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	resp := p.prompt("Test prompt?")

	if resp != ResponseYes {
		t.Errorf("expected ResponseYes, got %v", resp)
	}
}

func TestPrompterNoResponse(t *testing.T) {
	input := strings.NewReader("n\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	resp := p.prompt("Test prompt?")

	if resp != ResponseNo {
		t.Errorf("expected ResponseNo, got %v", resp)
	}
}

func TestPrompterAllResponse(t *testing.T) {
	input := strings.NewReader("a\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	resp := p.prompt("First prompt?")
	if resp != ResponseYes {
		t.Errorf("expected ResponseYes after 'a', got %v", resp)
	}

	// Subsequent prompts should auto-approve
	resp = p.prompt("Second prompt?")
	if resp != ResponseYes {
		t.Errorf("expected ResponseYes (auto-approve), got %v", resp)
	}
}

func TestPrompterQuitResponse(t *testing.T) {
	input := strings.NewReader("q\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	if resp := p.prompt("Test prompt?"); resp != ResponseQuit {
		t.Errorf("expected ResponseQuit, got %v", resp)
	}
}

func TestPrompterInvalidResponse(t *testing.T) {
	input := strings.NewReader("invalid\n")
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(input, output)

	resp := p.prompt("Test prompt?")

	if resp != ResponseNo {
		t.Errorf("expected ResponseNo for invalid input, got %v", resp)
	}
	if !strings.Contains(output.String(), "Invalid response") {
		t.Errorf("expected 'Invalid response' message in output")
	}
}

func TestPrompterEOFResponse(t *testing.T) {
	p := NewPrompterWithIO(strings.NewReader(""), &bytes.Buffer{})

	if resp := p.prompt("Test prompt?"); resp != ResponseQuit {
		t.Errorf("expected ResponseQuit on EOF, got %v", resp)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"long yes", "YES\n", true},
		{"no", "n\n", false},
		{"anything else", "sure\n", false},
		{"eof", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &bytes.Buffer{}
			p := NewPrompterWithIO(strings.NewReader(tt.input), output)

			if got := p.Confirm("Confirm SDK Removal", "This action will remove the current SDK."); got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(output.String(), "Confirm SDK Removal") {
				t.Errorf("dialog title missing from output: %q", output.String())
			}
		})
	}
}

func TestSelectPackagesPartial(t *testing.T) {
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(strings.NewReader("y\nn\ny\n"), output)

	got, ok := p.SelectPackages("install", []string{"Analytics", "Crashes", "Push"})
	if !ok {
		t.Fatal("SelectPackages() proceed = false")
	}
	if !reflect.DeepEqual(got, []string{"Analytics", "Push"}) {
		t.Errorf("SelectPackages() = %v", got)
	}
	if !strings.Contains(output.String(), "Skipped: 1") {
		t.Errorf("summary missing skip count: %q", output.String())
	}
	if !strings.Contains(output.String(), "-> Install Crashes?") {
		t.Errorf("prompt text missing: %q", output.String())
	}
}

func TestSelectPackagesApproveAll(t *testing.T) {
	p := NewPrompterWithIO(strings.NewReader("a\n"), &bytes.Buffer{})

	got, ok := p.SelectPackages("install", []string{"Analytics", "Crashes"})
	if !ok || len(got) != 2 {
		t.Errorf("SelectPackages() = %v, %v", got, ok)
	}
}

func TestSelectPackagesQuit(t *testing.T) {
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(strings.NewReader("y\nq\n"), output)

	got, ok := p.SelectPackages("install", []string{"Analytics", "Crashes", "Push"})
	if ok || got != nil {
		t.Errorf("SelectPackages() = %v, %v, want nil, false", got, ok)
	}
	if !strings.Contains(output.String(), "Aborted") {
		t.Error("expected 'Aborted' in output")
	}
}

func TestSelectPackagesNoneSelected(t *testing.T) {
	output := &bytes.Buffer{}
	p := NewPrompterWithIO(strings.NewReader("n\n"), output)

	if _, ok := p.SelectPackages("install", []string{"Analytics"}); ok {
		t.Error("SelectPackages() proceed = true with nothing selected")
	}
	if !strings.Contains(output.String(), "No packages selected") {
		t.Error("expected 'No packages selected' in output")
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("install"); got != "Install" {
		t.Errorf("titleCase() = %q", got)
	}
	if got := titleCase(""); got != "" {
		t.Errorf("titleCase(\"\") = %q", got)
	}
}
