// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/newsdesk/pkg/types"
)

// Prompts holds the writer and editor instructions. The user fields are
// text/template sources: WriterUser sees .Topic and .Summary, EditorUser
// sees .Draft.
type Prompts struct {
	WriterSystem string `yaml:"writer_system"`
	WriterUser   string `yaml:"writer_user"`
	EditorSystem string `yaml:"editor_system"`
	EditorUser   string `yaml:"editor_user"`
}

// DefaultPrompts returns the built-in Persian writer and editor prompts.
func DefaultPrompts() Prompts {
	return Prompts{
		WriterSystem: "شما یک نویسنده متخصص علم و فناوری به زبان فارسی هستید. وظیفه شما این است که بر اساس اطلاعات داده شده، یک پست جذاب، دقیق و خوانا برای یک کانال تلگرامی بنویسید. از پاراگراف‌های کوتاه و زبان ساده استفاده کنید.",
		WriterUser:   "بر اساس این خلاصه، یک پست کامل در مورد '{{.Topic}}' بنویس: \n\n{{.Summary}}",
		EditorSystem: "شما یک ویراستار دقیق و سخت‌گیر به زبان فارسی هستید. متنی که به شما داده می‌شود را بازبینی کنید. اشتباهات گرامری و علمی را اصلاح کنید، جمله‌بندی را روان‌تر کنید و در صورت نیاز، عنوان جذاب‌تری برای آن پیشنهاد دهید. خروجی شما فقط باید متن نهایی و آماده انتشار باشد.",
		EditorUser:   "این متن را ویرایش و نهایی کن: \n\n{{.Draft}}",
	}
}

// LoadPrompts reads a YAML prompts file and overlays its non-empty fields
// onto DefaultPrompts.
func LoadPrompts(path string) (Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("reading prompts: %w", err)
	}
	var file Prompts
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Prompts{}, fmt.Errorf("parsing prompts: %w", err)
	}

	p := DefaultPrompts()
	if file.WriterSystem != "" {
		p.WriterSystem = file.WriterSystem
	}
	if file.WriterUser != "" {
		p.WriterUser = file.WriterUser
	}
	if file.EditorSystem != "" {
		p.EditorSystem = file.EditorSystem
	}
	if file.EditorUser != "" {
		p.EditorUser = file.EditorUser
	}
	if _, err := p.compile(); err != nil {
		return Prompts{}, err
	}
	return p, nil
}

// styleTemplates wrap a system and user message for each prompt style.
var styleTemplates = map[types.PromptStyle]*template.Template{
	types.StylePlain: template.Must(template.New("plain").Parse(
		"{{.System}}\n\n{{.User}}")),
	types.StyleInst: template.Must(template.New("inst").Parse(
		"<s>[INST] {{.System}}\n\n{{.User}} [/INST]")),
	types.StyleLlama3: template.Must(template.New("llama3").Parse(
		"<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\n{{.System}}<|eot_id|>" +
			"<|start_header_id|>user<|end_header_id|>\n\n{{.User}}<|eot_id|>" +
			"<|start_header_id|>assistant<|end_header_id|>\n\n")),
}

// compiledPrompts is Prompts with the user templates parsed.
type compiledPrompts struct {
	writerSystem string
	editorSystem string
	writerUser   *template.Template
	editorUser   *template.Template
}

func (p Prompts) compile() (*compiledPrompts, error) {
	writer, err := template.New("writer").Option("missingkey=error").Parse(p.WriterUser)
	if err != nil {
		return nil, fmt.Errorf("parsing writer prompt: %w", err)
	}
	editor, err := template.New("editor").Option("missingkey=error").Parse(p.EditorUser)
	if err != nil {
		return nil, fmt.Errorf("parsing editor prompt: %w", err)
	}
	return &compiledPrompts{
		writerSystem: p.WriterSystem,
		editorSystem: p.EditorSystem,
		writerUser:   writer,
		editorUser:   editor,
	}, nil
}

// writerPrompt renders the draft-stage prompt for topic and summary.
func (c *compiledPrompts) writerPrompt(style types.PromptStyle, topic, summary string) (string, error) {
	user, err := execute(c.writerUser, map[string]string{"Topic": topic, "Summary": summary})
	if err != nil {
		return "", fmt.Errorf("rendering writer prompt: %w", err)
	}
	return wrap(style, c.writerSystem, user)
}

// editorPrompt renders the polish-stage prompt for draft.
func (c *compiledPrompts) editorPrompt(style types.PromptStyle, draft string) (string, error) {
	user, err := execute(c.editorUser, map[string]string{"Draft": draft})
	if err != nil {
		return "", fmt.Errorf("rendering editor prompt: %w", err)
	}
	return wrap(style, c.editorSystem, user)
}

// wrap places system and user text into the backend's prompt style.
func wrap(style types.PromptStyle, system, user string) (string, error) {
	tmpl, ok := styleTemplates[style]
	if !ok {
		return "", fmt.Errorf("unknown prompt style %q", style)
	}
	return execute(tmpl, map[string]string{"System": system, "User": user})
}

func execute(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
