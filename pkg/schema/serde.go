package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// A serde prefixes avro payload with the schema registry wire header.
type serde struct {
	srSerde *sr.Serde
}

func (s serde) Encode(v any) ([]byte, error) {
	return s.srSerde.Encode(v)
}

func (s serde) Decode(data []byte, v any) error {
	return s.srSerde.Decode(data, v)
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(si SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if si == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = si
		return nil
	}
}

// NewSerdeCartEventV1 returns serde of [CartEventV1].
//
// Both [SubjectOpt] and [SchemaIdentifierOpt] are required.
func NewSerdeCartEventV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeCartEventV1"
	return serdeConstructor(
		ctx,
		CartEventSchemaTextV1,
		CartEventV1{},
		op,
		opts...,
	)
}

func allRequiredOpts(opts []Opt) bool {
	return len(opts) == 2
}

func serdeConstructor(
	ctx context.Context,
	schemaText string,
	example any,
	op string,
	opts ...Opt,
) (Serde, error) {
	if !allRequiredOpts(opts) {
		return serde{}, fmt.Errorf("%s: %w", op, ErrTooFewOpts)
	}

	var serdeOpts serdeOpts
	for _, o := range opts {
		if err := o(&serdeOpts); err != nil {
			return serde{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	avroSchema, err := avro.Parse(schemaText)
	if err != nil {
		return serde{}, fmt.Errorf("%s: %w", op, err)
	}

	srID, err := serdeOpts.si.DetermineID(
		ctx, serdeOpts.subject, schemaText,
	)
	if err != nil {
		return serde{}, fmt.Errorf("%s: %w", op, err)
	}

	srSerde := new(sr.Serde)
	srSerde.Register(
		srID,
		example,
		sr.EncodeFn(AvroEncodeFn(avroSchema)),
		sr.DecodeFn(AvroDecodeFn(avroSchema)),
	)

	return serde{srSerde}, nil
}
