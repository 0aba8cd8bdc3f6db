package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"user_id",
			"resource_id",
			"status",
			"start",
			"end",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 256,
			},

			"resource_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 256,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"blocked",
				},
			},

			"start": bson.M{
				"bsonType": "date",
			},

			"end": bson.M{
				"bsonType": "date",
			},

			"note": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
	"$expr": bson.M{
		"$lt": bson.A{"$start", "$end"},
	},
}
