package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/infrastructure/fieldcrypt"
)

const collectionStaff = "staff_users"

var staffEncryptedFields = []string{"first_name", "last_name"}

type staffDocument struct {
	ID           int64  `bson:"_id"`
	FirstName    string `bson:"first_name"`
	LastName     string `bson:"last_name"`
	Email        string `bson:"email"`
	EmailKey     string `bson:"email_key"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
	Active       bool   `bson:"active"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

func (d *staffDocument) encryptedFields() map[string]*string {
	return map[string]*string{
		"first_name": &d.FirstName,
		"last_name":  &d.LastName,
	}
}

// StaffRepository stores internal user accounts. Login lookups match the
// email exactly; email_key only guards against case-variant duplicates.
type StaffRepository struct {
	db     *mongo.Database
	col    *mongo.Collection
	fields *fieldcrypt.FieldCipher
}

func NewStaffRepository(db *mongo.Database, codec fieldcrypt.Cipher) *StaffRepository {
	fields := fieldcrypt.NewFieldCipher(codec, staffEncryptedFields...)
	return &StaffRepository{
		db:     db,
		col:    db.Collection(collectionStaff),
		fields: fields,
	}
}

func (r *StaffRepository) toDocument(u *domain.StaffUser) (staffDocument, error) {
	doc := staffDocument{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		EmailKey:     emailKey(u.Email),
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Active:       u.Active,
		CreatedAt:    timeToUnix(u.CreatedAt),
		UpdatedAt:    timeToUnix(u.UpdatedAt),
	}
	if err := r.fields.Seal(doc.encryptedFields()); err != nil {
		return staffDocument{}, fmt.Errorf("encrypt staff user %d: %w", u.ID, err)
	}
	return doc, nil
}

func (r *StaffRepository) fromDocument(doc staffDocument) (*domain.StaffUser, error) {
	if err := r.fields.Open(doc.encryptedFields()); err != nil {
		return nil, fmt.Errorf("decrypt staff user %d: %w", doc.ID, err)
	}
	return &domain.StaffUser{
		ID:           doc.ID,
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         domain.Role(doc.Role),
		Active:       doc.Active,
		CreatedAt:    unixToTime(doc.CreatedAt),
		UpdatedAt:    unixToTime(doc.UpdatedAt),
	}, nil
}

func (r *StaffRepository) findOne(ctx context.Context, filter bson.M) (*domain.StaffUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc staffDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrStaffNotFound
		}
		return nil, fmt.Errorf("find staff user: %w", err)
	}
	return r.fromDocument(doc)
}

func (r *StaffRepository) FindByID(ctx context.Context, id int64) (*domain.StaffUser, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	if email == "" {
		return nil, domain.ErrStaffNotFound
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *StaffRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"email_key": emailKey(email)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count staff users: %w", err)
	}
	return n > 0, nil
}

func (r *StaffRepository) Create(ctx context.Context, u *domain.StaffUser) (*domain.StaffUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextSequence(ctx, r.db, collectionStaff)
	if err != nil {
		return nil, err
	}

	created := *u
	created.ID = id
	doc, err := r.toDocument(&created)
	if err != nil {
		return nil, err
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Conflict("email already in use")
		}
		return nil, fmt.Errorf("insert staff user: %w", err)
	}
	return &created, nil
}

// EnsureIndexes creates the unique email indexes on the staff collection.
func (r *StaffRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email_key", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
