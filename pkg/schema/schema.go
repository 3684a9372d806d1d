package schema

import (
	"context"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier returns the registry id of the schema text
// under the subject, registering it when needed.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject, schemaText string) (int, error)
}

type registryClient interface {
	CreateSchema(
		ctx context.Context, subject string, s sr.Schema,
	) (sr.SubjectSchema, error)
}

type schemaCreater struct {
	cl registryClient
}

// NewSchemaCreater returns [SchemaIdentifier] backed by the schema registry.
func NewSchemaCreater(cl registryClient) SchemaIdentifier {
	return schemaCreater{cl}
}

func (c schemaCreater) DetermineID(
	ctx context.Context, subject, schemaText string,
) (int, error) {
	const op = "schemaCreater.DetermineID"

	ss, err := c.cl.CreateSchema(ctx, subject, sr.Schema{
		Schema: schemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ss.ID, nil
}

func AvroEncodeFn(s avro.Schema) func(v any) ([]byte, error) {
	return func(v any) ([]byte, error) {
		return avro.Marshal(s, v)
	}
}

func AvroDecodeFn(s avro.Schema) func([]byte, any) error {
	return func(data []byte, v any) error {
		return avro.Unmarshal(s, data, v)
	}
}
