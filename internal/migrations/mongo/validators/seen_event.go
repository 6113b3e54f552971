package validators

import "go.mongodb.org/mongo-driver/bson"

// SeenEventValidator only admits documents written by the dedup store: a
// SHA-256 hex _id and the time it was claimed.
var SeenEventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"created_at",
		},
		"additionalProperties": false,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  "^[a-f0-9]{64}$",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
