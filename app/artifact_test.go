package app

import (
	"bytes"
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/opsml/opsml/adapters/localfs"
	"github.com/opsml/opsml/domain/data"
)

func newArtifactService(t *testing.T) *ArtifactService {
	t.Helper()
	storage, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return NewArtifactService(storage, 64, zerolog.Nop())
}

func TestSaveLoadTable(t *testing.T) {
	svc := newArtifactService(t)
	ctx := context.Background()

	table := &data.Table{Columns: []data.Column{
		{Name: "age", DType: data.DTypeInt64, Values: []any{int64(3), int64(5)}},
		{Name: "name", DType: data.DTypeString, Values: []any{"mia", "tao"}},
	}}

	p := WritePath("ml", "cats", "1.0.0", "data.json")
	uri, art, err := svc.Save(ctx, p, table)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if uri == "" {
		t.Error("empty storage uri")
	}
	if art.Tag != data.TagTable {
		t.Errorf("tag = %q", art.Tag)
	}
	if art.FeatureMap["age"] != data.DTypeInt64 {
		t.Errorf("feature map = %v", art.FeatureMap)
	}

	got, _, err := svc.Load(ctx, p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, table) {
		t.Errorf("round trip mismatch:\ngot  %#v\nwant %#v", got, table)
	}
}

func TestWritePathShape(t *testing.T) {
	if got := WritePath("ml", "cats", "1.2.0", "model.bin"); got != "ml/cats/v1.2.0/model.bin" {
		t.Errorf("write path = %q", got)
	}
}

func TestPutFileAndOpenFile(t *testing.T) {
	svc := newArtifactService(t)
	ctx := context.Background()

	payload := bytes.Repeat([]byte{0xEE}, 5*64+7)
	if _, err := svc.PutFile(ctx, "ml/cats/v1.0.0/model.bin", bytes.NewReader(payload)); err != nil {
		t.Fatalf("put file: %v", err)
	}

	it, err := svc.OpenFile(ctx, "ml/cats/v1.0.0/model.bin")
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer it.Close()

	var count int
	var rebuilt []byte
	for {
		b, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		count++
		rebuilt = append(rebuilt, b...)
	}
	if count != 6 {
		t.Errorf("got %d chunks, want 6", count)
	}
	if !bytes.Equal(rebuilt, payload) {
		t.Error("streamed bytes differ")
	}

	files, err := svc.ListFiles(ctx, "ml/cats")
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(files) != 1 || files[0] != "ml/cats/v1.0.0/model.bin" {
		t.Errorf("files = %v", files)
	}
}
