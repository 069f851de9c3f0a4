package routes

import (
	"bytes"
	"mime/multipart"
	"testing"
)

func buildForm(t *testing.T, filename string, content []byte) *multipart.Form {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form
}

func TestReadFormFile_ReturnsSmallFileIntact(t *testing.T) {
	content := []byte("quarterly revenue projections")
	form := buildForm(t, "deck.pdf", content)

	data, err := readFormFile(form.File["files"][0], 1024)
	if err != nil {
		t.Fatalf("readFormFile: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("data = %q, want %q", data, content)
	}
}

func TestReadFormFile_BoundsOversizedUpload(t *testing.T) {
	const max = 64
	form := buildForm(t, "deck.pdf", bytes.Repeat([]byte("x"), 4*max))

	data, err := readFormFile(form.File["files"][0], max)
	if err != nil {
		t.Fatalf("readFormFile: %v", err)
	}
	// One byte over the cap is enough for the size check to reject the
	// file; the rest of the upload is never buffered.
	if len(data) != max+1 {
		t.Errorf("len(data) = %d, want %d", len(data), max+1)
	}
}
