package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are exported from their respective files:
// - User from user.go
// - Resume from resume.go
// - Session, AgentType, SessionStatus from session.go
// - Message from message.go

// Database schema overview:
// 1. users - registered accounts, unique email
// 2. resumes - uploaded resume text, owned by one user
// 3. sessions - interview conversations, optionally pointing at a resume
// 4. messages - ordered turns of a session, unique (session_id, turn_order)
