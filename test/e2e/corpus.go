package e2e

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// IngestCase is one upload and what its extracted content must look like.
type IngestCase struct {
	Fixture Fixture
	// Contains lists substrings that must appear in rawContent.
	Contains []string
	// Excludes lists substrings that must not appear in rawContent.
	Excludes []string
	Degraded bool
}

// Corpus is the set of uploads the end-to-end tests run through the HTTP boundary.
type Corpus struct {
	Cases []IngestCase
}

// BuildCorpus returns one case per supported upload family.
func BuildCorpus() *Corpus {
	return &Corpus{Cases: []IngestCase{
		{
			Fixture:  Fixture{"notes.txt", "text/plain", []byte("Hello world")},
			Contains: []string{"Hello world"},
		},
		{
			Fixture:  Fixture{"readme.md", "text/markdown", []byte("# Title\n\n- item one\n- item two\n")},
			Contains: []string{"# Title", "- item two"},
		},
		{
			Fixture:  Fixture{"prices.csv", "text/csv", []byte("sku,price\nA1,9.99\n")},
			Contains: []string{"sku,price", "A1,9.99"},
		},
		{
			Fixture:  Fixture{"data.json", "application/json", []byte(`{"answer": 42}`)},
			Contains: []string{"JSON file content:\n", `"answer": 42`},
		},
		{
			Fixture: Fixture{"page.html", "text/html", []byte(`<html><body><h1>Release notes</h1>` +
				`<p>Version <b>2.0</b> ships today.</p><script>alert("x")</script></body></html>`)},
			Contains: []string{"Release notes", "**2.0**"},
			Excludes: []string{"alert", "<script"},
		},
		{
			Fixture:  Fixture{"report.pdf", "application/pdf", TextPDF("Quarterly revenue grew twelve percent.", "Costs were flat.")},
			Contains: []string{"=== PDF DOCUMENT: report.pdf ===", "Pages: 2", "Quarterly revenue grew twelve percent.", "=== END OF DOCUMENT ==="},
		},
		{
			Fixture:  Fixture{"scan.pdf", "application/pdf", ScannedPDF(1)},
			Contains: []string{"scan.pdf", "No readable text"},
			Degraded: true,
		},
		{
			Fixture:  Fixture{"broken.pdf", "application/pdf", []byte("this is not a pdf at all")},
			Contains: []string{"broken.pdf", "could not be extracted", "corrupted"},
			Degraded: true,
		},
		{
			Fixture:  Fixture{"photo.png", "image/png", MinimalPNG()},
			Contains: []string{"Image file: photo.png (image/png)"},
			Degraded: true,
		},
		{
			Fixture:  Fixture{"letter.docx", docxMime, MinimalDocx("Dear team,", "Thanks.")},
			Contains: []string{"Word document: letter.docx"},
			Degraded: true,
		},
	}}
}

// Fixtures returns the uploads of every case in order.
func (c *Corpus) Fixtures() []Fixture {
	out := make([]Fixture, len(c.Cases))
	for i, tc := range c.Cases {
		out[i] = tc.Fixture
	}
	return out
}
