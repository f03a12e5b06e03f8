package assets

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"visaletter-backend/storage"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

// Directory layout under the asset root
const (
	DirRules         = "rules"
	DirMiniTemplates = "mini_templates"
	DirSamples       = "samples"

	FileMasterRules       = "master_rules.txt"
	FileStructureGuide    = "structure_guide.txt"
	FileQualityChecklist  = "quality_checklist.txt"
	FileMasterTemplate    = "master_template.txt"
	FileMasterTemplateAlt = "master_templete.txt"
)

// StrictMiniTemplates must each exist when strict mode is on
var StrictMiniTemplates = []string{
	"refusal",
	"sponsor",
	"self_employed",
	"tourist_first_time",
	"business",
	"medical",
}

var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

const maxConcurrentReads = 8

// Document is one named text asset
type Document struct {
	Name    string
	Content string
}

// Bundle is the validated, immutable set of policy assets. It is built once
// at startup and shared read-only by every request.
type Bundle struct {
	MasterRules        string
	StructureGuide     string
	QualityChecklist   string
	MasterTemplate     string
	MasterTemplatePath string
	MiniTemplates      []Document
	Samples            []Document
	StyleDigest        string
	Fingerprint        string
	Strict             bool
	Location           string
}

// MiniTemplate returns the first mini-template (lexicographic) whose file name
// contains key, ignoring case. Hyphens and spaces count as underscores.
func (b *Bundle) MiniTemplate(key string) (Document, bool) {
	key = lookupKey(key)
	for _, doc := range b.MiniTemplates {
		if strings.Contains(lookupKey(doc.Name), key) {
			return doc, true
		}
	}
	return Document{}, false
}

var lookupReplacer = strings.NewReplacer("-", "_", " ", "_")

func lookupKey(s string) string {
	return lookupReplacer.Replace(strings.ToLower(s))
}

// ConfigurationError lists every mandatory asset that is missing
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required policy assets: " + strings.Join(e.Missing, ", ")
}

// Options controls validation strictness and digest limits
type Options struct {
	Strict bool
	Digest DigestLimits
}

// Load reads and validates the asset tree. On missing mandatory content it
// returns a *ConfigurationError naming every missing path; other failures
// (permissions, network) are returned as ordinary errors.
func Load(ctx context.Context, src storage.Storage, opts Options) (*Bundle, error) {
	for _, dir := range []string{DirRules, DirMiniTemplates, DirSamples} {
		if err := src.EnsureDir(ctx, dir); err != nil {
			return nil, fmt.Errorf("failed to prepare %s: %w", dir, err)
		}
	}

	ruleNames, err := src.List(ctx, DirRules)
	if err != nil {
		return nil, err
	}
	miniNames, err := src.List(ctx, DirMiniTemplates)
	if err != nil {
		return nil, err
	}
	sampleNames, err := src.List(ctx, DirSamples)
	if err != nil {
		return nil, err
	}

	var missing []string
	present := toSet(ruleNames)

	for _, name := range []string{FileMasterRules, FileStructureGuide, FileQualityChecklist} {
		if !present[name] {
			missing = append(missing, path.Join(DirRules, name))
		}
	}

	templateName := ""
	switch {
	case present[FileMasterTemplate]:
		templateName = FileMasterTemplate
	case present[FileMasterTemplateAlt]:
		templateName = FileMasterTemplateAlt
	default:
		missing = append(missing, fmt.Sprintf("%s (or %s)",
			path.Join(DirRules, FileMasterTemplate), path.Join(DirRules, FileMasterTemplateAlt)))
	}

	miniNames = filterText(miniNames)
	sampleNames = filterText(sampleNames)

	if opts.Strict {
		missing = append(missing, missingStrictMinis(miniNames)...)
	} else if len(miniNames) == 0 {
		missing = append(missing, DirMiniTemplates)
	}
	if len(sampleNames) == 0 {
		missing = append(missing, DirSamples)
	}

	if len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}

	bundle := &Bundle{
		MasterTemplatePath: path.Join(DirRules, templateName),
		MiniTemplates:      make([]Document, len(miniNames)),
		Samples:            make([]Document, len(sampleNames)),
		Strict:             opts.Strict,
		Location:           src.Location(),
	}

	reads := []readTarget{
		{path: path.Join(DirRules, FileMasterRules), dest: &bundle.MasterRules, mandatory: true},
		{path: path.Join(DirRules, FileStructureGuide), dest: &bundle.StructureGuide, mandatory: true},
		{path: path.Join(DirRules, FileQualityChecklist), dest: &bundle.QualityChecklist, mandatory: true},
		{path: bundle.MasterTemplatePath, dest: &bundle.MasterTemplate, mandatory: true},
	}
	for i, name := range miniNames {
		bundle.MiniTemplates[i].Name = name
		reads = append(reads, readTarget{path: path.Join(DirMiniTemplates, name), dest: &bundle.MiniTemplates[i].Content})
	}
	for i, name := range sampleNames {
		bundle.Samples[i].Name = name
		reads = append(reads, readTarget{path: path.Join(DirSamples, name), dest: &bundle.Samples[i].Content})
	}

	if err := readAll(ctx, src, reads); err != nil {
		return nil, err
	}

	for _, r := range reads {
		if r.notFound || (r.mandatory && strings.TrimSpace(*r.dest) == "") {
			missing = append(missing, r.path)
		}
	}
	if len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}

	bundle.StyleDigest = BuildStyleDigest(bundle.Samples, opts.Digest)
	bundle.Fingerprint = fingerprint(reads)

	return bundle, nil
}

type readTarget struct {
	path      string
	dest      *string
	mandatory bool
	notFound  bool
}

// readAll downloads every target concurrently; each goroutine only writes
// its own target.
func readAll(ctx context.Context, src storage.Storage, targets []readTarget) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i := range targets {
		target := &targets[i]
		g.Go(func() error {
			text, err := storage.ReadText(gctx, src, target.path)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					target.notFound = true
					return nil
				}
				return err
			}
			*target.dest = text
			return nil
		})
	}

	return g.Wait()
}

func missingStrictMinis(names []string) []string {
	present := toSet(names)
	var missing []string
	for _, name := range StrictMiniTemplates {
		if !present[name+".txt"] && !present[name+".md"] {
			missing = append(missing, path.Join(DirMiniTemplates, name+".txt"))
		}
	}
	return missing
}

func filterText(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if textExtensions[strings.ToLower(path.Ext(name))] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// fingerprint hashes every asset path and body in load order
func fingerprint(targets []readTarget) string {
	h, _ := blake2b.New256(nil)
	for _, t := range targets {
		h.Write([]byte(t.path))
		h.Write([]byte{0})
		h.Write([]byte(*t.dest))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
