// Package markdown renders Markdown for richText sections and turns Markdown
// files with front matter into microsite pages.
package markdown
