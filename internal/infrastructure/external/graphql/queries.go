package graphql

// expenseFields is the subset of the expense page fragment the process workflow reads
const expenseFields = `
fragment processExpenseFields on Expense {
  id
  legacyId
  description
  currency
  status
  amount
  payoutMethod {
    id
    type
  }
  permissions {
    canApprove
    canUnapprove
    canReject
    canPay
    canMarkAsUnpaid
  }
  activities {
    id
    type
    createdAt
  }
  account {
    id
    slug
    currency
    ... on Collective {
      balance
      host { ...processHostFields }
    }
    ... on Event {
      balance
      host { ...processHostFields }
    }
  }
}

fragment processHostFields on Host {
  id
  name
  slug
  plan {
    transferwisePayouts
    transferwisePayoutsLimit
  }
}
`

const processExpenseMutation = `
mutation processExpense($id: String, $legacyId: Int, $action: ExpenseProcessAction!, $paymentParams: ProcessExpensePaymentParams) {
  processExpense(expense: {id: $id, legacyId: $legacyId}, action: $action, paymentParams: $paymentParams) {
    ...processExpenseFields
  }
}
` + expenseFields

const expenseQuery = `
query expense($id: String, $legacyId: Int) {
  expense(expense: {id: $id, legacyId: $legacyId}) {
    ...processExpenseFields
  }
}
` + expenseFields
