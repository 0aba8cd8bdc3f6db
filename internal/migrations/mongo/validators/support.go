package validators

import "go.mongodb.org/mongo-driver/bson"

// ReservationLockValidator describes the per-resource guard documents written
// inside insert transactions.
var ReservationLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "version"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"version": bson.M{
				"bsonType": "long",
			},
			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var CounterValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "seq"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"seq": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},
		},
	},
}
