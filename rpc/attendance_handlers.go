package rpc

import (
	"net/http"

	"clubchain/core/state"
	"clubchain/native/attendance"
)

type initializeSessionParams struct {
	Date      string `json:"date"`
	StartTime uint64 `json:"startTime"`
	LateTime  uint64 `json:"lateTime"`
	Authority string `json:"authority"`
}

type sessionResult struct {
	Address        string `json:"address"`
	Authority      string `json:"authority"`
	Date           string `json:"date"`
	StartTime      uint64 `json:"startTime"`
	LateTime       uint64 `json:"lateTime"`
	TotalAttendees uint64 `json:"totalAttendees"`
	TotalLate      uint64 `json:"totalLate"`
	IsActive       bool   `json:"isActive"`
}

type recordResult struct {
	Address      string `json:"address"`
	Session      string `json:"session"`
	Member       string `json:"member"`
	Status       string `json:"status"`
	CheckInTime  uint64 `json:"checkInTime"`
	PointsEarned uint64 `json:"pointsEarned"`
}

func (s *Server) handleInitializeSession(w http.ResponseWriter, req *RPCRequest) {
	var params initializeSessionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	authority, err := parseIdentity("authority", params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	addr, err := s.node.InitializeSession(params.Date, params.StartTime, params.LateTime, authority)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"address": formatDerived(addr),
		"date":    params.Date,
	})
}

type setSessionActiveParams struct {
	SessionAddress string `json:"sessionAddress"`
	Date           string `json:"date"`
	Active         bool   `json:"active"`
	Authority      string `json:"authority"`
}

func (s *Server) handleSetSessionActive(w http.ResponseWriter, req *RPCRequest) {
	var params setSessionActiveParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	authority, err := parseIdentity("authority", params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sessionAddr, err := parseDerived("sessionAddress", params.SessionAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	if err := s.node.SetSessionActive(sessionAddr, params.Date, params.Active, authority); err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"active": params.Active})
}

type reactivateSessionParams struct {
	SessionAddress string `json:"sessionAddress"`
	Date           string `json:"date"`
	StartTime      uint64 `json:"startTime"`
	LateTime       uint64 `json:"lateTime"`
	Authority      string `json:"authority"`
}

func (s *Server) handleReactivateSession(w http.ResponseWriter, req *RPCRequest) {
	var params reactivateSessionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	authority, err := parseIdentity("authority", params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sessionAddr, err := parseDerived("sessionAddress", params.SessionAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	if err := s.node.ReactivateSession(sessionAddr, params.Date, params.StartTime, params.LateTime, authority); err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"reactivated": true})
}

type checkInParams struct {
	SessionAddress string `json:"sessionAddress"`
	MemberAddress  string `json:"memberAddress"`
	Date           string `json:"date"`
	Caller         string `json:"caller"`
}

func (s *Server) handleCheckIn(w http.ResponseWriter, req *RPCRequest) {
	var params checkInParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseIdentity("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sessionAddr, err := parseDerived("sessionAddress", params.SessionAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	memberAddr, err := parseDerived("memberAddress", params.MemberAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	recordAddr, record, err := s.node.CheckIn(sessionAddr, memberAddr, params.Date, caller)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	s.metrics.RecordCheckIn(record.Status.String())
	writeResult(w, req.ID, recordResultFrom(recordAddr, record))
}

type getSessionParams struct {
	Date string `json:"date"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, req *RPCRequest) {
	var params getSessionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	session, err := s.node.GetSession(params.Date)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, sessionResult{
		Address:        formatDerived(state.SessionAddress(session.Date)),
		Authority:      formatIdentity(session.Authority),
		Date:           session.Date,
		StartTime:      session.StartTime,
		LateTime:       session.LateTime,
		TotalAttendees: session.TotalAttendees,
		TotalLate:      session.TotalLate,
		IsActive:       session.IsActive,
	})
}

type getRecordParams struct {
	Date   string `json:"date"`
	Member string `json:"member"`
}

func (s *Server) handleGetRecord(w http.ResponseWriter, req *RPCRequest) {
	var params getRecordParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	member, err := parseIdentity("member", params.Member)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	record, err := s.node.GetAttendanceRecord(params.Date, member)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, recordResultFrom(state.AttendanceAddress(record.Session, record.Member[:]), record))
}

func recordResultFrom(addr state.Address, record *attendance.Record) recordResult {
	return recordResult{
		Address:      formatDerived(addr),
		Session:      formatDerived(record.Session),
		Member:       formatIdentity(record.Member),
		Status:       record.Status.String(),
		CheckInTime:  record.CheckInTime,
		PointsEarned: record.PointsEarned,
	}
}
