package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/niksmo/storefront/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/sr"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

type MockSchemaRegistry struct {
	mock.Mock
}

func (r *MockSchemaRegistry) CreateSchema(
	ctx context.Context, subject string, s sr.Schema,
) (sr.SubjectSchema, error) {
	args := r.Called(ctx, subject, s)
	return args.Get(0).(sr.SubjectSchema), args.Error(1)
}

func TestSerdeOrderV1(t *testing.T) {
	const subject = "orders-value"

	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeOrderV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeOrderV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("EmptySubject", func(t *testing.T) {
		_, err := schema.NewSerdeOrderV1(
			t.Context(),
			schema.SubjectOpt(""),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
	})

	t.Run("IdentifierFailure", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.OrderSchemaTextV1,
		).Return(0, errors.New("registry is down"))

		_, err := schema.NewSerdeOrderV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		assert.ErrorContains(t, err, "registry is down")
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.OrderSchemaTextV1,
		).Return(7, nil)

		serde, err := schema.NewSerdeOrderV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)

		v1 := schema.OrderV1{
			OrderID: "testOrderID",
			UserID:  "anonymous",
			Lines: []schema.OrderLineV1{
				{
					Product:  schema.OrderProductV1{ProductID: "1", Name: "testName", Price: 10},
					Quantity: 3,
				},
			},
			Total: 33,
		}

		data, err := serde.Encode(v1)
		require.NoError(t, err)
		require.Greater(t, len(data), 5)
		assert.Equal(t, byte(0), data[0])

		var v2 schema.OrderV1
		err = serde.Decode(data, &v2)
		require.NoError(t, err)

		assert.Equal(t, v1.OrderID, v2.OrderID)
		assert.Equal(t, v1.UserID, v2.UserID)
		assert.Equal(t, v1.Lines, v2.Lines)
		assert.Equal(t, v1.Total, v2.Total)
		schemaIdentifier.AssertExpectations(t)
	})
}

func TestSchemaCreater(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		registry := new(MockSchemaRegistry)
		registry.On("CreateSchema", t.Context(), "orders-value", sr.Schema{
			Type:   sr.TypeAvro,
			Schema: schema.OrderSchemaTextV1,
		}).Return(sr.SubjectSchema{ID: 3}, nil)

		id, err := schema.NewSchemaCreater(registry).DetermineID(
			t.Context(), "orders-value", schema.OrderSchemaTextV1,
		)
		require.NoError(t, err)
		assert.Equal(t, 3, id)
	})

	t.Run("Failure", func(t *testing.T) {
		registry := new(MockSchemaRegistry)
		registry.On("CreateSchema", mock.Anything, mock.Anything, mock.Anything).
			Return(sr.SubjectSchema{}, errors.New("conflict"))

		_, err := schema.NewSchemaCreater(registry).DetermineID(
			t.Context(), "orders-value", schema.OrderSchemaTextV1,
		)
		assert.ErrorContains(t, err, "conflict")
	})
}
