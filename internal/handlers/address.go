package handlers

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

func authedUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("userId")
	if !ok {
		log.Println("[ADDRESS] [ERROR] userId missing in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return primitive.NilObjectID, false
	}
	return value.(primitive.ObjectID), true
}

func loadUser(ctx context.Context, c *gin.Context, db *mongo.Database, userID primitive.ObjectID) (models.User, bool) {
	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		log.Println("[ADDRESS] [ERROR] user lookup failed:", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return models.User{}, false
	}
	return user, true
}

func saveAddresses(ctx context.Context, c *gin.Context, db *mongo.Database, userID primitive.ObjectID, addrs []models.Address) bool {
	_, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
		"$set": bson.M{
			"addresses": addrs,
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		log.Println("[ADDRESS] [ERROR] address write failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return false
	}
	return true
}

func newAddressID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}

	buf[6] = (buf[6] & 0x0f) | 0x40
	buf[8] = (buf[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		buf[0:4],
		buf[4:6],
		buf[6:8],
		buf[8:10],
		buf[10:16],
	), nil
}

func GetUserAddresses(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authedUserID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, ok := loadUser(ctx, c, db, userID)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{"addresses": user.Addresses})
	}
}

func CreateUserAddress(db *mongo.Database, locks *AccountLocks) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authedUserID(c)
		if !ok {
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Println("[ADDRESS] [ERROR] invalid address body:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		req = req.normalized()
		if problems := validateAddressFields(req); len(problems) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": problems})
			return
		}

		addressID, err := newAddressID()
		if err != nil {
			log.Println("[ADDRESS] [ERROR] address id generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "address id generation failed"})
			return
		}

		unlock := locks.Lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, ok := loadUser(ctx, c, db, userID)
		if !ok {
			return
		}

		addresses := addAddress(user.Addresses, models.Address{
			ID:         addressID,
			Label:      req.Label,
			FullName:   req.FullName,
			Phone:      req.Phone,
			Street:     req.Street,
			City:       req.City,
			State:      req.State,
			Country:    req.Country,
			PostalCode: req.PostalCode,
			IsDefault:  req.IsDefault,
		})

		if !saveAddresses(ctx, c, db, userID, addresses) {
			return
		}

		log.Println("[ADDRESS] [INFO] address created:", addressID)
		c.JSON(http.StatusCreated, gin.H{"addresses": addresses})
	}
}

func UpdateUserAddress(db *mongo.Database, locks *AccountLocks) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authedUserID(c)
		if !ok {
			return
		}

		addressID := strings.TrimSpace(c.Param("id"))
		if addressID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Println("[ADDRESS] [ERROR] invalid address body:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		req = req.normalized()
		if problems := validateAddressFields(req); len(problems) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": problems})
			return
		}

		unlock := locks.Lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, ok := loadUser(ctx, c, db, userID)
		if !ok {
			return
		}

		updated := updateAddress(user.Addresses, addressID, models.Address{
			Label:      req.Label,
			FullName:   req.FullName,
			Phone:      req.Phone,
			Street:     req.Street,
			City:       req.City,
			State:      req.State,
			Country:    req.Country,
			PostalCode: req.PostalCode,
			IsDefault:  req.IsDefault,
		})
		if !updated {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}

		if !saveAddresses(ctx, c, db, userID, user.Addresses) {
			return
		}

		log.Println("[ADDRESS] [INFO] address updated:", addressID)
		c.JSON(http.StatusOK, gin.H{"addresses": user.Addresses})
	}
}

func DeleteUserAddress(db *mongo.Database, locks *AccountLocks) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authedUserID(c)
		if !ok {
			return
		}

		addressID := strings.TrimSpace(c.Param("id"))
		if addressID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
			return
		}

		unlock := locks.Lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, ok := loadUser(ctx, c, db, userID)
		if !ok {
			return
		}

		remaining, found := removeAddress(user.Addresses, addressID)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}

		if !saveAddresses(ctx, c, db, userID, remaining) {
			return
		}

		log.Println("[ADDRESS] [INFO] address deleted:", addressID)
		c.JSON(http.StatusOK, gin.H{"addresses": remaining})
	}
}

func SetDefaultUserAddress(db *mongo.Database, locks *AccountLocks) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authedUserID(c)
		if !ok {
			return
		}

		addressID := strings.TrimSpace(c.Param("id"))
		if addressID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address id"})
			return
		}

		unlock := locks.Lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, ok := loadUser(ctx, c, db, userID)
		if !ok {
			return
		}

		if !setDefaultAddress(user.Addresses, addressID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}

		if !saveAddresses(ctx, c, db, userID, user.Addresses) {
			return
		}

		log.Println("[ADDRESS] [INFO] default address set:", addressID)
		c.JSON(http.StatusOK, gin.H{"addresses": user.Addresses})
	}
}
