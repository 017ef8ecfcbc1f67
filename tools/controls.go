/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package tools renders operator documentation.
package tools

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/frc6135/botcore/oi"

	md "github.com/russross/blackfriday/v2"
)

// ControlsMarkdown renders the controls reference as Markdown with
// one table per section.
func ControlsMarkdown(c *oi.Controls) string {
	var (
		buf     bytes.Buffer
		section string
	)
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(&buf, format+"\n", args...)
	}
	for _, ref := range c.Reference() {
		if ref.Section != section {
			if section != "" {
				f("")
			}
			section = ref.Section
			f("## %s", section)
			f("")
			f("| Control | Input | Action |")
			f("| --- | --- | --- |")
		}
		f("| `%s` | `%s` | %s |", ref.Control, ref.Input, cell(ref.Doc))
	}
	return buf.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderControlsHTML writes the HTML fragment for the controls
// reference.
func RenderControlsHTML(c *oi.Controls, out io.Writer) error {
	_, err := fmt.Fprintf(out, "<div class=\"controls doc\">\n%s</div>\n",
		md.Run([]byte(ControlsMarkdown(c))))
	return err
}

// RenderControlsPage writes a complete page.
func RenderControlsPage(c *oi.Controls, title string, cssFiles []string, out io.Writer) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/controls.css"}
	}
	title = html.EscapeString(title)

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)
	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}
	fmt.Fprintf(out, `  </head>
  <body>
    <h1>%s</h1>
`, title)

	if err := RenderControlsHTML(c, out); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, `  </body>
</html>
`)
	return err
}
