package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"userId",
			"slotNumber",
			"reservedAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"userId": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"slotNumber": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"reservedAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
