package share

import (
	"html/template"
	"io"

	"github.com/jwebster45206/realm-engine/pkg/npc"
)

const descriptionLimit = 200

var pageTemplate = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Name}} - Realm of Echoes</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <meta property="og:type" content="website">
    <meta property="og:title" content="{{.Name}} - {{.Trait}}">
    <meta property="og:description" content="{{.Description}}">
    <meta name="twitter:card" content="summary">
    <meta name="twitter:title" content="{{.Name}} - {{.Trait}}">
    <meta name="twitter:description" content="{{.Description}}">
    <style>
        body { font-family: system-ui, sans-serif; background: #0b1020; color: #dfe7ff; padding: 40px 20px; margin: 0; }
        .container { max-width: 800px; margin: 0 auto; background: #0f1724; border: 1px solid #1f2a44; border-radius: 12px; padding: 40px; }
        h1 { color: #2563eb; margin-top: 0; }
        .trait { background: #14203a; padding: 8px 16px; border-radius: 999px; display: inline-block; margin: 12px 0; font-weight: 600; }
        .backstory { line-height: 1.6; }
        .meta { color: #9fb0ff; font-size: 13px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Name}}</h1>
        <div class="trait">{{.Trait}}</div>
        <p class="backstory">{{.Backstory}}</p>
        <p class="meta">Shared {{.Views}} views &middot; NPC {{.NPCID}}</p>
    </div>
</body>
</html>
`))

type pageData struct {
	Name        string
	Trait       string
	Backstory   string
	Description string
	NPCID       string
	Views       int
}

// RenderPage writes the HTML preview page for a share. All NPC content is
// escaped by html/template.
func RenderPage(w io.Writer, s *Share, n *npc.NPC) error {
	desc := []rune(n.Backstory)
	if len(desc) > descriptionLimit {
		desc = desc[:descriptionLimit]
	}
	return pageTemplate.Execute(w, pageData{
		Name:        n.Name,
		Trait:       n.Trait,
		Backstory:   n.Backstory,
		Description: string(desc),
		NPCID:       n.ID,
		Views:       s.ViewCount,
	})
}
