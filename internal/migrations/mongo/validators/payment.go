package validators

import "go.mongodb.org/mongo-driver/bson"

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"userId",
			"slotNumber",
			"paymentMethod",
			"paymentNumber",
			"amount",
			"paymentStatus",
			"generatedAt",
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

			"paymentMethod": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"paymentNumber": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"amount": bson.M{
				"bsonType":         []string{"double", "int", "long", "decimal"},
				"exclusiveMinimum": true,
				"minimum":          0,
			},

			"paymentStatus": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Pending",
					"InProcess",
					"Confirmed",
				},
			},

			"generatedAt": bson.M{
				"bsonType": "date",
			},

			"paidAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
