package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/infrastructure/fieldcrypt"
)

const collectionClients = "clients"

// Client fields stored encrypted.
var clientEncryptedFields = []string{"first_name", "last_name", "address", "phone", "identifier"}

type clientDocument struct {
	ID              int64  `bson:"_id"`
	FirstName       string `bson:"first_name"`
	LastName        string `bson:"last_name"`
	Address         string `bson:"address"`
	Phone           string `bson:"phone"`
	PhoneKey        string `bson:"phone_key"`
	Identifier      string `bson:"identifier"`
	IdentifierKey   string `bson:"identifier_key"`
	Email           string `bson:"email,omitempty"`
	EmailKey        string `bson:"email_key,omitempty"`
	PasswordHash    string `bson:"password_hash"`
	Active          bool   `bson:"active"`
	CredentialsSent bool   `bson:"credentials_sent"`
	Notes           string `bson:"notes,omitempty"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
}

func (d *clientDocument) encryptedFields() map[string]*string {
	return map[string]*string{
		"first_name": &d.FirstName,
		"last_name":  &d.LastName,
		"address":    &d.Address,
		"phone":      &d.Phone,
		"identifier": &d.Identifier,
	}
}

// ClientRepository stores clients with their personal fields encrypted.
// Phone and identifier are looked up through blind indexes since their
// ciphertext changes on every write.
type ClientRepository struct {
	db     *mongo.Database
	col    *mongo.Collection
	fields *fieldcrypt.FieldCipher
}

func NewClientRepository(db *mongo.Database, codec fieldcrypt.Cipher) *ClientRepository {
	fields := fieldcrypt.NewFieldCipher(codec, clientEncryptedFields...)
	return &ClientRepository{
		db:     db,
		col:    db.Collection(collectionClients),
		fields: fields,
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *ClientRepository) toDocument(c *domain.Client) (clientDocument, error) {
	doc := clientDocument{
		ID:              c.ID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Address:         c.Address,
		Phone:           c.Phone,
		PhoneKey:        r.fields.Index(c.Phone),
		Identifier:      c.Identifier,
		IdentifierKey:   r.fields.Index(c.Identifier),
		Email:           strings.TrimSpace(c.Email),
		EmailKey:        emailKey(c.Email),
		PasswordHash:    c.PasswordHash,
		Active:          c.Active,
		CredentialsSent: c.CredentialsSent,
		Notes:           c.Notes,
		CreatedAt:       timeToUnix(c.CreatedAt),
		UpdatedAt:       timeToUnix(c.UpdatedAt),
	}
	if err := r.fields.Seal(doc.encryptedFields()); err != nil {
		return clientDocument{}, fmt.Errorf("encrypt client %d: %w", c.ID, err)
	}
	return doc, nil
}

func (r *ClientRepository) fromDocument(doc clientDocument) (*domain.Client, error) {
	if err := r.fields.Open(doc.encryptedFields()); err != nil {
		return nil, fmt.Errorf("decrypt client %d: %w", doc.ID, err)
	}
	return &domain.Client{
		ID:              doc.ID,
		FirstName:       doc.FirstName,
		LastName:        doc.LastName,
		Address:         doc.Address,
		Phone:           doc.Phone,
		Identifier:      doc.Identifier,
		Email:           doc.Email,
		PasswordHash:    doc.PasswordHash,
		Active:          doc.Active,
		CredentialsSent: doc.CredentialsSent,
		Notes:           doc.Notes,
		CreatedAt:       unixToTime(doc.CreatedAt),
		UpdatedAt:       unixToTime(doc.UpdatedAt),
	}, nil
}

func (r *ClientRepository) findOne(ctx context.Context, filter bson.M) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc clientDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return r.fromDocument(doc)
}

func (r *ClientRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count clients: %w", err)
	}
	return n > 0, nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ClientRepository) FindByEmail(ctx context.Context, email string) (*domain.Client, error) {
	key := emailKey(email)
	if key == "" {
		return nil, domain.ErrClientNotFound
	}
	return r.findOne(ctx, bson.M{"email_key": key})
}

func (r *ClientRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Client, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, domain.ErrClientNotFound
	}
	return r.findOne(ctx, bson.M{"identifier_key": r.fields.Index(identifier)})
}

func (r *ClientRepository) FindByEmailOrIdentifier(ctx context.Context, login string) (*domain.Client, error) {
	c, err := r.FindByEmail(ctx, login)
	if err == nil || !errors.Is(err, domain.ErrClientNotFound) {
		return c, err
	}
	return r.FindByIdentifier(ctx, login)
}

func (r *ClientRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	key := emailKey(email)
	if key == "" {
		return false, nil
	}
	return r.exists(ctx, bson.M{"email_key": key})
}

func (r *ClientRepository) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	return r.exists(ctx, bson.M{"identifier_key": r.fields.Index(identifier)})
}

func (r *ClientRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, bson.M{"phone_key": r.fields.Index(phone)})
}

func (r *ClientRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]*domain.Client, 0)
	for cur.Next(ctx) {
		var doc clientDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode client: %w", err)
		}
		c, err := r.fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextSequence(ctx, r.db, collectionClients)
	if err != nil {
		return nil, err
	}

	created := *c
	created.ID = id
	doc, err := r.toDocument(&created)
	if err != nil {
		return nil, err
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, insertError(err)
	}
	return &created, nil
}

// insertError maps a failed insert. A duplicate on the identifier index is
// reported as ErrIdentifierTaken so the caller can pick another one.
func insertError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert client: %w", err)
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, "identifier_key") {
				return domain.ErrIdentifierTaken
			}
		}
	}
	return domain.Conflict("client already exists")
}

// Update rewrites the profile and status fields. The password hash and
// credentials flag have their own single-field writes.
func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) error {
	doc, err := r.toDocument(c)
	if err != nil {
		return err
	}

	set := bson.M{
		"first_name":     doc.FirstName,
		"last_name":      doc.LastName,
		"address":        doc.Address,
		"phone":          doc.Phone,
		"phone_key":      doc.PhoneKey,
		"identifier":     doc.Identifier,
		"identifier_key": doc.IdentifierKey,
		"active":         doc.Active,
		"notes":          doc.Notes,
		"updated_at":     doc.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if doc.EmailKey == "" {
		update["$unset"] = bson.M{"email": "", "email_key": ""}
	} else {
		set["email"] = doc.Email
		set["email_key"] = doc.EmailKey
	}

	return r.updateOne(ctx, c.ID, update)
}

func (r *ClientRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC().Unix(),
	}})
}

func (r *ClientRepository) MarkCredentialsSent(ctx context.Context, id int64) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"credentials_sent": true}})
}

func (r *ClientRepository) updateOne(ctx context.Context, id int64, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict("client already exists")
		}
		return fmt.Errorf("update client %d: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete client %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

// EnsureIndexes creates the unique lookup indexes on the clients collection.
func (r *ClientRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "identifier_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phone_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email_key", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
