package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/internal/config"
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/bind"
	"github.com/vango-dev/vtree/pkg/source"
)

// project is the loaded configuration plus its template source.
type project struct {
	cfg    *config.Config
	src    source.Source
	logger *slog.Logger
}

func (g *globals) project(cmd *cobra.Command) (*project, error) {
	cfg, err := config.LoadOrDefault(g.dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &project{cfg: cfg, logger: g.logger(cmd.ErrOrStderr())}
	if cfg.UsesS3() {
		p.src = source.NewS3(source.NewS3Client(cfg.S3.Region), cfg.S3.Bucket, cfg.S3.Prefix)
	} else {
		p.src = source.NewDir(cfg.TemplatePath())
	}
	return p, nil
}

// template reads a template by name from the configured source. A name
// that is an existing file path is read directly.
func (p *project) template(ctx context.Context, name string) (string, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		b, err := os.ReadFile(name)
		if err != nil {
			return "", errors.New("E140").Wrap(err)
		}
		return string(b), nil
	}
	text, err := source.ReadString(ctx, p.src, name)
	if stderrors.Is(err, source.ErrNotFound) || stderrors.Is(err, source.ErrInvalidName) {
		return "", errors.New("E140").
			WithDetailf("%q is neither a file nor a template in %s", name, p.where()).
			Wrap(err)
	}
	if err != nil {
		return "", errors.New("E140").Wrap(err)
	}
	return text, nil
}

func (p *project) where() string {
	if p.cfg.UsesS3() {
		return "s3://" + p.cfg.S3.Bucket + "/" + p.cfg.S3.Prefix
	}
	return p.cfg.TemplatePath()
}

// loadData reads a JSON or YAML object. JSON is a subset of YAML, so
// both go through the YAML decoder; the extension only picks the error
// suggestion. An empty path yields empty data.
func loadData(path string) (bind.Data, error) {
	if path == "" {
		return bind.Data{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E141").WithDetailf("cannot read %s", path).Wrap(err)
	}
	var data bind.Data
	if err := yaml.Unmarshal(b, &data); err != nil {
		format := "YAML"
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = "JSON"
		}
		return nil, errors.New("E141").
			WithDetailf("%s is not a valid %s object", path, format).
			Wrap(err)
	}
	if data == nil {
		data = bind.Data{}
	}
	return data, nil
}
