// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/gargoyle/chain"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response with the status mapped from err
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    err.Error(),
	})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s: invalid address %q", errBadRequest, field, s)
	}
	return common.HexToAddress(s), nil
}

func parseHash(field, s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %s: invalid hash %q", errBadRequest, field, s)
	}
	return common.BytesToHash(b), nil
}

func parseAmount(field, s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s: invalid number %q", errBadRequest, field, s)
	}
	return v, nil
}

// parseBatch decodes an action batch. The description hash is taken from
// DescriptionHash when set, otherwise it is computed from Description.
func parseBatch(b ActionBatch) (
	[]common.Address,
	[]*big.Int,
	[][]byte,
	common.Hash,
	error,
) {
	targets := make([]common.Address, len(b.Targets))
	for i, t := range b.Targets {
		addr, err := parseAddress(fmt.Sprintf("targets[%d]", i), t)
		if err != nil {
			return nil, nil, nil, common.Hash{}, err
		}
		targets[i] = addr
	}
	values := make([]*big.Int, len(b.Values))
	for i, v := range b.Values {
		val, err := parseAmount(fmt.Sprintf("values[%d]", i), v)
		if err != nil {
			return nil, nil, nil, common.Hash{}, err
		}
		values[i] = val
	}
	calldatas := make([][]byte, len(b.Calldatas))
	for i, c := range b.Calldatas {
		data, err := hexutil.Decode(c)
		if err != nil {
			return nil, nil, nil, common.Hash{}, fmt.Errorf(
				"%w: calldatas[%d]: %w",
				errBadRequest,
				i,
				err,
			)
		}
		calldatas[i] = data
	}
	descriptionHash := governance.HashDescription(b.Description)
	if b.DescriptionHash != "" {
		h, err := parseHash("description_hash", b.DescriptionHash)
		if err != nil {
			return nil, nil, nil, common.Hash{}, err
		}
		descriptionHash = h
	}
	return targets, values, calldatas, descriptionHash, nil
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, op *chain.Op) {
	res, err := s.node.Apply(r.Context(), op)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := ApplyResponse{Seq: res.Seq, Block: res.Block}
	if res.ProposalID != (common.Hash{}) {
		resp.ProposalID = res.ProposalID.Hex()
	}
	if res.Weight != nil {
		resp.Weight = res.Weight.String()
	}
	status := http.StatusOK
	if op.Type == chain.OpPropose {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		IsHealthy: true,
		Block:     s.node.Block(),
	}
	status := http.StatusOK
	if err := s.node.Halted(); err != nil {
		resp.IsHealthy = false
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleTip(w http.ResponseWriter, _ *http.Request) {
	tip := s.node.Tip()
	writeJSON(w, http.StatusOK, TipResponse{Block: tip.Block, Ops: tip.NextSeq})
}

// handleMine handles POST /api/v1/blocks/mine. An empty body mines one block.
func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	req := MineRequest{Blocks: 1}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.apply(w, r, &chain.Op{Type: chain.OpMine, Count: req.Blocks})
}

func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.DescriptionHash != "" {
		s.writeError(w, fmt.Errorf(
			"%w: proposals take a description, not its hash",
			errBadRequest,
		))
		return
	}
	targets, values, calldatas, _, err := parseBatch(req.ActionBatch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.apply(w, r, &chain.Op{
		Type:        chain.OpPropose,
		From:        from,
		Targets:     targets,
		Values:      values,
		Calldatas:   calldatas,
		Description: req.Description,
	})
}

// handleHashProposal handles POST /api/v1/proposals/hash without touching
// any state
func (s *Server) handleHashProposal(w http.ResponseWriter, r *http.Request) {
	var req ActionBatch
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	targets, values, calldatas, descriptionHash, err := parseBatch(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := governance.HashProposal(targets, values, calldatas, descriptionHash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HashResponse{
		ProposalID:      id.Hex(),
		DescriptionHash: descriptionHash.Hex(),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	var from common.Address
	if req.From != "" {
		var err error
		if from, err = parseAddress("from", req.From); err != nil {
			s.writeError(w, err)
			return
		}
	}
	targets, values, calldatas, descriptionHash, err := parseBatch(req.ActionBatch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.apply(w, r, &chain.Op{
		Type:            chain.OpExecute,
		From:            from,
		Targets:         targets,
		Values:          values,
		Calldatas:       calldatas,
		DescriptionHash: descriptionHash,
	})
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash("id", r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req VoteRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.apply(w, r, &chain.Op{
		Type:       chain.OpVote,
		From:       from,
		ProposalID: id,
		Support:    governance.Support(req.Support),
		Reason:     req.Reason,
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash("id", r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req CancelRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.apply(w, r, &chain.Op{Type: chain.OpCancel, From: from, ProposalID: id})
}

func (s *Server) handleDelegate(w http.ResponseWriter, r *http.Request) {
	var req DelegationRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.apply(w, r, &chain.Op{Type: chain.OpDelegate, From: from, To: to})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.apply(w, r, &chain.Op{
		Type:   chain.OpTransfer,
		From:   from,
		To:     to,
		Amount: amount,
	})
}

func (s *Server) proposalResponse(p governance.Proposal, block uint64) ProposalResponse {
	gov := s.node.Governor()
	state, _ := gov.State(p.ID, block)
	resp := ProposalResponse{
		ID:              p.ID.Hex(),
		Proposer:        p.Proposer.Hex(),
		Targets:         make([]string, len(p.Targets)),
		Values:          make([]string, len(p.Values)),
		Calldatas:       make([]string, len(p.Calldatas)),
		Description:     p.Description,
		DescriptionHash: p.DescriptionHash.Hex(),
		VoteStart:       p.VoteStart,
		VoteEnd:         p.VoteEnd,
		State:           state.String(),
		StateCode:       uint8(state),
		ForVotes:        p.ForVotes.String(),
		AgainstVotes:    p.AgainstVotes.String(),
		AbstainVotes:    p.AbstainVotes.String(),
		Quorum:          gov.Quorum(p.VoteStart).String(),
		Executed:        p.Executed,
		Canceled:        p.Canceled,
	}
	for i := range p.Targets {
		resp.Targets[i] = p.Targets[i].Hex()
		resp.Values[i] = p.Values[i].String()
		resp.Calldatas[i] = hexutil.Encode(p.Calldatas[i])
	}
	return resp
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePage(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	block := s.node.Block()
	proposals := paginate(w, s.node.Governor().Proposals(), params)
	resp := make([]ProposalResponse, len(proposals))
	for i, p := range proposals {
		resp[i] = s.proposalResponse(p, block)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash("id", r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.node.Governor().Proposal(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.proposalResponse(p, s.node.Block()))
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash("id", r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	voter, err := parseAddress("voter", r.PathValue("voter"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	receipt, err := s.node.Governor().Receipt(id, voter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := ReceiptResponse{
		ProposalID: id.Hex(),
		Voter:      voter.Hex(),
		HasVoted:   receipt.HasVoted,
		Weight:     "0",
		Reason:     receipt.Reason,
	}
	if receipt.HasVoted {
		resp.Support = receipt.Support.String()
		resp.Weight = receipt.Weight.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListVotes handles GET /api/v1/proposals/{id}/votes from the
// metadata projections
func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	id, err := parseHash("id", r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.node.Governor().Proposal(id); err != nil {
		s.writeError(w, err)
		return
	}
	if s.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Error:      http.StatusText(http.StatusServiceUnavailable),
			Message:    "vote history requires a database",
		})
		return
	}
	params, err := ParsePage(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	votes, err := s.db.GetGovernanceVotes(id.Bytes(), nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	votes = paginate(w, votes, params)
	resp := make([]VoteResponse, len(votes))
	for i, v := range votes {
		resp[i] = VoteResponse{
			Voter:   common.BytesToAddress(v.Voter).Hex(),
			Support: governance.Support(v.Support).String(),
			Weight:  v.Weight.String(),
			Reason:  v.Reason,
			Block:   v.AddedBlock,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAccount handles GET /api/v1/accounts/{address}. The block query
// parameter selects the block the weight is read at.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", r.PathValue("address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	block, err := s.blockParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	l := s.node.Ledger()
	resp := AccountResponse{
		Address: addr.Hex(),
		Balance: l.BalanceOf(addr).String(),
		Weight:  l.WeightAt(addr, block).String(),
		Block:   block,
	}
	if delegate := l.Delegates(addr); delegate != (common.Address{}) {
		resp.Delegate = delegate.Hex()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCheckpoints handles GET /api/v1/accounts/{address}/checkpoints
func (s *Server) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", r.PathValue("address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	params, err := ParsePage(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	checkpoints := s.node.Ledger().Checkpoints(addr)
	checkpoints = paginate(w, checkpoints, params)
	resp := make([]CheckpointResponse, len(checkpoints))
	for i, cp := range checkpoints {
		resp[i] = CheckpointResponse{Block: cp.Block, Weight: cp.Weight.String()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuorum(w http.ResponseWriter, r *http.Request) {
	block, err := s.blockParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuorumResponse{
		Block:  block,
		Quorum: s.node.Governor().Quorum(block).String(),
	})
}

// blockParam returns the block query parameter, defaulting to the current
// block
func (s *Server) blockParam(r *http.Request) (uint64, error) {
	param := r.URL.Query().Get("block")
	if param == "" {
		return s.node.Block(), nil
	}
	block, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid block %q", errBadRequest, param)
	}
	return block, nil
}
