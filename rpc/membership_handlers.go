package rpc

import (
	"net/http"
	"strconv"
	"strings"

	"clubchain/core/state"
	"clubchain/native/membership"
)

type registerMemberParams struct {
	Owner     string `json:"owner"`
	Role      string `json:"role"`
	Authority string `json:"authority"`
}

type memberResult struct {
	Address         string `json:"address"`
	Owner           string `json:"owner"`
	Role            string `json:"role"`
	TotalAttendance uint64 `json:"totalAttendance"`
	TotalLate       uint64 `json:"totalLate"`
	TotalAbsence    uint64 `json:"totalAbsence"`
	TotalPoints     uint64 `json:"totalPoints"`
	IsActive        bool   `json:"isActive"`
}

func parseRole(raw string) (membership.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return membership.RoleAdmin, true
	case "member", "":
		return membership.RoleMember, true
	default:
		return membership.RoleMember, false
	}
}

func (s *Server) handleRegisterMember(w http.ResponseWriter, req *RPCRequest) {
	var params registerMemberParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseIdentity("owner", params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	authority, err := parseIdentity("authority", params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	role, ok := parseRole(params.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "role must be \"admin\" or \"member\"", nil)
		return
	}

	addr, err := s.node.RegisterMember(owner, role, authority)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"address": formatDerived(addr),
		"owner":   formatIdentity(owner),
		"role":    role.String(),
	})
}

type deactivateMemberParams struct {
	MemberAddress string `json:"memberAddress"`
	Owner         string `json:"owner"`
	Authority     string `json:"authority"`
}

func (s *Server) handleDeactivateMember(w http.ResponseWriter, req *RPCRequest) {
	var params deactivateMemberParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseIdentity("owner", params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	authority, err := parseIdentity("authority", params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	memberAddr, err := parseDerived("memberAddress", params.MemberAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	if err := s.node.DeactivateMember(memberAddr, owner, authority); err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"deactivated": true})
}

type getMemberParams struct {
	Owner string `json:"owner"`
}

func (s *Server) handleGetMember(w http.ResponseWriter, req *RPCRequest) {
	var params getMemberParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseIdentity("owner", params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	member, err := s.node.GetMember(owner)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, memberResultFrom(member))
}

func memberResultFrom(member *membership.Member) memberResult {
	return memberResult{
		Address:         formatDerived(state.MemberAddress(member.Owner[:])),
		Owner:           formatIdentity(member.Owner),
		Role:            member.Role.String(),
		TotalAttendance: member.TotalAttendance,
		TotalLate:       member.TotalLate,
		TotalAbsence:    member.TotalAbsence,
		TotalPoints:     member.TotalPoints,
		IsActive:        member.IsActive,
	}
}

type getBalanceParams struct {
	Owner string `json:"owner"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params getBalanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseIdentity("owner", params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	account, err := s.node.GetAccount(owner)
	if err != nil {
		s.writeLedgerError(w, req.ID, req.Method, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"owner":      formatIdentity(owner),
		"balancePts": account.BalancePTS.String(),
		"nonce":      strconv.FormatUint(account.Nonce, 10),
	})
}
