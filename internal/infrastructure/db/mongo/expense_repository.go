package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moneytracker/money-tracker/internal/core/domain"
	"github.com/moneytracker/money-tracker/internal/core/ports"
)

const collectionExpenses = "expenses"

type ExpenseRepository struct {
	col *mongo.Collection
}

func NewExpenseRepository(db *mongo.Database) *ExpenseRepository {
	return &ExpenseRepository{col: db.Collection(collectionExpenses)}
}

type expenseDoc struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	UserID     string               `bson:"user_id"`
	CategoryID string               `bson:"category_id"`
	Amount     primitive.Decimal128 `bson:"amount"`
	IdemKey    string               `bson:"idempotency_key,omitempty"`
	CreatedAt  time.Time            `bson:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at"`
}

func (d expenseDoc) toDomain() (*domain.Expense, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	return &domain.Expense{
		ID:             d.ID.Hex(),
		UserID:         d.UserID,
		CategoryID:     d.CategoryID,
		Amount:         amount,
		IdempotencyKey: d.IdemKey,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

// Create inserts a new expense document.
func (r *ExpenseRepository) Create(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	amount, err := toDecimal128(e.Amount)
	if err != nil {
		return nil, err
	}
	doc := expenseDoc{
		ID:         primitive.NewObjectID(),
		UserID:     e.UserID,
		CategoryID: e.CategoryID,
		Amount:     amount,
		IdemKey:    e.IdempotencyKey,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		// Another instance committed the same idempotency key first.
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	created := *e
	created.ID = doc.ID.Hex()
	return &created, nil
}

// FindByID retrieves an expense owned by userID.
func (r *ExpenseRepository) FindByID(ctx context.Context, userID, id string) (*domain.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrExpenseNotFound
	}

	var doc expenseDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return doc.toDomain()
}

func (r *ExpenseRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc expenseDoc
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID, "idempotency_key": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("find expense by idempotency key: %w", err)
	}
	return doc.toDomain()
}

// List returns the expenses matching filter, oldest first.
func (r *ExpenseRepository) List(ctx context.Context, filter ports.ListExpensesFilter) ([]*domain.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := bson.M{"user_id": filter.UserID}
	if filter.CategoryID != "" {
		q["category_id"] = filter.CategoryID
	}

	cursor, err := r.col.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []expenseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}

	out := make([]*domain.Expense, 0, len(docs))
	for _, d := range docs {
		e, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Update rewrites amount and category of an existing expense.
func (r *ExpenseRepository) Update(ctx context.Context, e *domain.Expense) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(e.ID)
	if err != nil {
		return domain.ErrExpenseNotFound
	}
	amount, err := toDecimal128(e.Amount)
	if err != nil {
		return err
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "user_id": e.UserID},
		bson.M{"$set": bson.M{"amount": amount, "category_id": e.CategoryID, "updated_at": e.UpdatedAt}},
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrExpenseNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the expenses collection.
func (r *ExpenseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category_id", Value: 1}}},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$type": "string"}}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
