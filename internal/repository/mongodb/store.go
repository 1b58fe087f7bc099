// Package mongodb implements the storage ports on MongoDB. Versioned writes
// filter on {_id, version}; multi-document writes run in a session transaction.
// A store built without transactions is only safe against a mock deployment.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/segyhp/fund-ledger/internal/config"
	"github.com/segyhp/fund-ledger/internal/domain"
	"github.com/segyhp/fund-ledger/internal/repository"
	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

const (
	AccountsCollection     = "savings_accounts"
	PostingsCollection     = "savings_transactions"
	LoansCollection        = "loans"
	InstallmentsCollection = "loan_payments"
)

type Store struct {
	db           *mongo.Database
	transactions bool
}

var (
	_ repository.LedgerStore = (*Store)(nil)
	_ repository.LoanStore   = (*Store)(nil)
)

func NewStore(db *mongo.Database, transactions bool) *Store {
	return &Store{db: db, transactions: transactions}
}

// Connect opens a client, pings it and returns the configured database.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout * 2).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info("connected to mongo", zap.String("database", cfg.DBName), zap.Bool("transactions", cfg.Transactions))
	return client.Database(cfg.DBName), nil
}

// EnsureIndexes creates the lookup and uniqueness indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		PostingsCollection: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "seq", Value: -1}}},
		},
		LoansCollection: {
			{Keys: bson.D{{Key: "member_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		InstallmentsCollection: {
			{Keys: bson.D{{Key: "loan_id", Value: 1}, {Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "member_id", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (*domain.SavingsAccount, error) {
	var doc accountDoc
	err := s.db.Collection(AccountsCollection).FindOne(ctx, bson.M{"_id": accountID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, customError.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (s *Store) ListAccounts(ctx context.Context, status domain.AccountStatus) ([]*domain.SavingsAccount, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(AccountsCollection).Find(ctx, bson.M{"status": string(status)}, opts)
	if err != nil {
		return nil, err
	}

	var docs []accountDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	accounts := make([]*domain.SavingsAccount, 0, len(docs))
	for _, d := range docs {
		a, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (s *Store) CommitPosting(ctx context.Context, account *domain.SavingsAccount, posting *domain.SavingsTransaction) error {
	next := account.Version + 1

	err := s.atomic(ctx, func(ctx context.Context) error {
		doc := toAccountDoc(account)
		doc.Version = next

		accounts := s.db.Collection(AccountsCollection)
		if account.Version == 0 {
			if _, err := accounts.InsertOne(ctx, doc); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return customError.ErrVersionConflict
				}
				return err
			}
		} else {
			res, err := accounts.ReplaceOne(ctx, bson.M{"_id": account.ID, "version": account.Version}, doc)
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return customError.ErrVersionConflict
			}
		}

		if posting == nil {
			return nil
		}
		_, err := s.db.Collection(PostingsCollection).InsertOne(ctx, toPostingDoc(posting, next))
		return err
	})
	if err != nil {
		return err
	}

	account.Version = next
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID string, limit int) ([]*domain.SavingsTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.db.Collection(PostingsCollection).Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, err
	}

	var docs []postingDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	transactions := make([]*domain.SavingsTransaction, 0, len(docs))
	for _, d := range docs {
		t, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

func (s *Store) CreateLoan(ctx context.Context, loan *domain.LoanApplication) error {
	doc := toLoanDoc(loan)
	doc.Version = 1

	if _, err := s.db.Collection(LoansCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return customError.ErrVersionConflict
		}
		return err
	}

	loan.Version = 1
	return nil
}

func (s *Store) GetLoan(ctx context.Context, loanID string) (*domain.LoanApplication, error) {
	var doc loanDoc
	err := s.db.Collection(LoansCollection).FindOne(ctx, bson.M{"_id": loanID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, customError.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (s *Store) ListLoansByMember(ctx context.Context, memberID string) ([]*domain.LoanApplication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.findLoans(ctx, bson.M{"member_id": memberID}, opts)
}

func (s *Store) ListLoansByStatus(ctx context.Context, statuses ...domain.LoanStatus) ([]*domain.LoanApplication, error) {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return s.findLoans(ctx, bson.M{"status": bson.M{"$in": values}}, opts)
}

func (s *Store) findLoans(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.LoanApplication, error) {
	cursor, err := s.db.Collection(LoansCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []loanDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	loans := make([]*domain.LoanApplication, 0, len(docs))
	for _, d := range docs {
		l, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, nil
}

func (s *Store) UpdateLoan(ctx context.Context, loan *domain.LoanApplication, installments ...*domain.LoanPayment) error {
	next := loan.Version + 1

	write := func(ctx context.Context) error {
		doc := toLoanDoc(loan)
		doc.Version = next

		res, err := s.db.Collection(LoansCollection).ReplaceOne(ctx, bson.M{"_id": loan.ID, "version": loan.Version}, doc)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return customError.ErrVersionConflict
		}

		for _, p := range installments {
			if err := s.upsertInstallment(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if len(installments) == 0 {
		err = write(ctx)
	} else {
		err = s.atomic(ctx, write)
	}
	if err != nil {
		return err
	}

	loan.Version = next
	return nil
}

// upsertInstallment sets the payment facts and writes the amortization fields
// only when the installment is new.
func (s *Store) upsertInstallment(ctx context.Context, p *domain.LoanPayment) error {
	filter := bson.M{"loan_id": p.LoanID, "number": p.Number}
	update := bson.M{
		"$set": bson.M{
			"status":      string(p.Status),
			"paid_at":     p.PaidAt,
			"paid_amount": p.PaidAmount,
			"late_days":   p.LateDays,
			"late_fee":    p.LateFee,
			"method":      p.Method,
			"receipt_ref": p.ReceiptRef,
			"notes":       p.Notes,
		},
		"$setOnInsert": bson.M{
			"_id":               p.ID,
			"member_id":         p.MemberID,
			"due_date":          p.DueDate,
			"amount":            p.Amount,
			"principal":         p.Principal,
			"interest":          p.Interest,
			"remaining_balance": p.RemainingBalance,
			"created_at":        p.CreatedAt,
		},
	}

	_, err := s.db.Collection(InstallmentsCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *Store) GetInstallments(ctx context.Context, loanID string) ([]*domain.LoanPayment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	return s.findInstallments(ctx, bson.M{"loan_id": loanID}, opts)
}

func (s *Store) GetInstallment(ctx context.Context, loanID string, number int) (*domain.LoanPayment, error) {
	var doc installmentDoc
	err := s.db.Collection(InstallmentsCollection).FindOne(ctx, bson.M{"loan_id": loanID, "number": number}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, customError.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (s *Store) ListInstallmentsByMember(ctx context.Context, memberID string) ([]*domain.LoanPayment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "loan_id", Value: 1}, {Key: "number", Value: 1}})
	return s.findInstallments(ctx, bson.M{"member_id": memberID}, opts)
}

func (s *Store) findInstallments(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.LoanPayment, error) {
	cursor, err := s.db.Collection(InstallmentsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []installmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	payments := make([]*domain.LoanPayment, 0, len(docs))
	for _, d := range docs {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}
