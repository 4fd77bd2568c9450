package handlers

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type Templates struct {
	Index  *template.Template
	Banned *template.Template
	Main   *template.Template
}

func LoadTemplates() (*Templates, error) {
	funcs := template.FuncMap{
		"plural": func(n int64, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
	}

	layout, err := templateFS.ReadFile("templates/layout.html")
	if err != nil {
		return nil, err
	}

	makePage := func(name string) (*template.Template, error) {
		page, err := templateFS.ReadFile("templates/" + name + ".html")
		if err != nil {
			return nil, err
		}
		t, err := template.New("layout").Funcs(funcs).Parse(string(layout))
		if err != nil {
			return nil, err
		}
		return t.Parse(string(page))
	}

	index, err := makePage("index")
	if err != nil {
		return nil, err
	}
	banned, err := makePage("banned")
	if err != nil {
		return nil, err
	}
	home, err := makePage("main")
	if err != nil {
		return nil, err
	}
	return &Templates{Index: index, Banned: banned, Main: home}, nil
}
