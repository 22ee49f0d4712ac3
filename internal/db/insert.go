package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FabricioLanche/campus-room/internal/models"
)

// InsertOne inserts a document that embeds models.Base, generating an ID
// when the caller left it empty. Duplicate-key failures on the _id are
// retried with a fresh ID; duplicate-key failures on any other unique
// index are returned to the caller, which may regenerate the colliding
// field and retry via WithRetries itself.
func InsertOne(ctx context.Context, collection *mongo.Collection, doc models.IBase) (models.IBase, error) {
	err := Try(func() error {
		doc.GenIDIfEmpty()
		_, insertErr := collection.InsertOne(ctx, doc)
		if IsMongoDuplicateKeyError(insertErr) {
			// Force a fresh ID on the next attempt in case the
			// collision was on _id rather than a secondary index.
			doc.GenID()
		}
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert document into %s: %w", collection.Name(), err)
	}
	return doc, nil
}
