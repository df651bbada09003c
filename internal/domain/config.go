package domain

// KeyPrefix namespaces every key imgdex writes to Redis/Valkey.
const KeyPrefix = "imgdex:"

// MaxIDLength bounds image identifiers accepted from clients.
const MaxIDLength = 128
