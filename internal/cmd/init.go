package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/sdkctl/internal/config"
	"github.com/adamancini/sdkctl/internal/templates"
)

const (
	templateFetchTimeout = 30 * time.Second
	maxTemplateSize      = 1 << 20
)

func newInitCmd() *cobra.Command {
	var templateName string
	var outputPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a Sdkfile for the project",
		Long: `Write a Sdkfile describing the SDK, its packages and the command that
imports them. Without --template a menu of built-in templates is shown.
--template also accepts an http(s) URL. The result is validated before it
is written.`,
		Example: `  sdkctl init
  sdkctl init -t minimal
  sdkctl init -t https://example.com/Sdkfile.yaml --file Sdkfile.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				dir, err := resolveProjectDir(projectDir)
				if err != nil {
					return err
				}
				outputPath = filepath.Join(dir, "Sdkfile.yaml")
			}
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), templateName, outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "", "Template name or URL")
	cmd.Flags().StringVar(&outputPath, "file", "", "Where to write the Sdkfile (default: <project>/Sdkfile.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing Sdkfile without asking")

	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		names := templates.List()
		out := make([]string, 0, len(names))
		for _, name := range names {
			out = append(out, name+"\t"+templates.GetDescription(name))
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// initFlow holds the streams of one init run. Every prompt reads from the
// same buffered reader.
type initFlow struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	client *http.Client
}

func runInit(stdin io.Reader, stdout, stderr io.Writer, templateName, outputPath string, force bool) error {
	f := &initFlow{
		in:     bufio.NewReader(stdin),
		out:    stdout,
		errOut: stderr,
		client: &http.Client{Timeout: templateFetchTimeout},
	}

	if !force {
		replace, err := f.mayReplace(outputPath)
		if err != nil || !replace {
			return err
		}
	}

	if templateName == "" {
		name, err := f.chooseTemplate()
		if err != nil {
			return err
		}
		templateName = name
	}

	content, err := f.templateContent(templateName)
	if err != nil {
		return err
	}

	// Parse with the output name so the format matches how it will be read.
	cfg, err := config.Parse(outputPath, content)
	if err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	if err := writeFileAtomic(outputPath, content); err != nil {
		return fmt.Errorf("failed to write Sdkfile: %w", err)
	}

	name := cfg.SDK.Name
	if name == "" {
		name = cfg.SDK.Repo
	}
	_, _ = fmt.Fprintf(f.out, "\nCreated %s for %s (%d packages)\n", outputPath, name, len(cfg.Packages))
	_, _ = fmt.Fprintln(f.out, "\nNext steps:")
	_, _ = fmt.Fprintf(f.out, "  - check that '%s' imports a package into %s\n", cfg.Installer.Command, cfg.SDK.DefaultLocation)
	_, _ = fmt.Fprintln(f.out, "  - sdkctl status")
	_, _ = fmt.Fprintln(f.out, "  - sdkctl install")
	return nil
}

// ask prints prompt and returns the trimmed answer. End of input is an
// empty answer.
func (f *initFlow) ask(prompt string) (string, error) {
	_, _ = fmt.Fprint(f.out, prompt)
	line, err := f.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// mayReplace reports whether outputPath is free or the user agreed to
// replace it.
func (f *initFlow) mayReplace(outputPath string) (bool, error) {
	if _, err := os.Stat(outputPath); err != nil {
		return true, nil
	}

	_, _ = fmt.Fprintf(f.errOut, "Sdkfile already exists at %s\n", outputPath)
	answer, err := f.ask("Overwrite? [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	_, _ = fmt.Fprintln(f.out, "Aborted.")
	return false, nil
}

// chooseTemplate shows the built-in templates plus a custom URL entry. An
// empty answer picks templates.Default.
func (f *initFlow) chooseTemplate() (string, error) {
	names := templates.List()
	custom := len(names) + 1
	def := 1

	_, _ = fmt.Fprintln(f.out, "\nSelect a Sdkfile template:")
	for i, name := range names {
		if name == templates.Default {
			def = i + 1
		}
		_, _ = fmt.Fprintf(f.out, "  %d. %-12s %s\n", i+1, name, templates.GetDescription(name))
	}
	_, _ = fmt.Fprintf(f.out, "  %d. %-12s %s\n", custom, "custom", "Download from a URL")

	answer, err := f.ask(fmt.Sprintf("\nTemplate [1-%d, default %d]: ", custom, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return names[def-1], nil
	}

	n, err := strconv.Atoi(answer)
	switch {
	case err != nil || n < 1 || n > custom:
		return "", fmt.Errorf("invalid selection: %s", answer)
	case n == custom:
		return f.ask("Template URL: ")
	}
	return names[n-1], nil
}

// templateContent returns a built-in template or downloads a URL.
func (f *initFlow) templateContent(name string) ([]byte, error) {
	if !strings.HasPrefix(name, "http://") && !strings.HasPrefix(name, "https://") {
		tmpl, err := templates.Get(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		return tmpl.Content, nil
	}

	resp, err := f.client.Get(name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch template: %s", resp.Status)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}
	if len(content) > maxTemplateSize {
		return nil, fmt.Errorf("template at %s is larger than %d bytes", name, maxTemplateSize)
	}
	return content, nil
}

// writeFileAtomic writes content next to path and renames it into place.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(content)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
